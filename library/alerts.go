// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package library

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foreclosurewatch/fwdata/data"
)

// AlertCandidates returns active listings touched since the given watermark
// plus anything first ingested inside the last day, so brand-new listings
// are never missed by a search whose watermark postdates their only update.
func (myLibrary *Library) AlertCandidates(ctx context.Context, since time.Time) ([]*data.ActiveListing, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT `+prefixColumns("p", propertyColumns)+`, `+prefixColumns("e", eventColumns)+`
FROM properties p JOIN foreclosure_events e ON e.property_id = p.id
WHERE e.active='t' AND (p.last_updated >= $1 OR p.ingestion_timestamp >= $2)`,
		since, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

// AlertedWithin reports whether the user was already alerted about this
// property inside the cooldown window.
func (myLibrary *Library) AlertedWithin(ctx context.Context, userID, propertyID uuid.UUID, window time.Duration) (bool, error) {
	alerted := false
	err := myLibrary.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM alert_history WHERE user_id=$1 AND property_id=$2 AND sent_at >= $3)`,
		userID, propertyID, time.Now().Add(-window)).Scan(&alerted)

	return alerted, err
}

// RecordAlert stores a delivered alert for cooldown suppression.
func (myLibrary *Library) RecordAlert(ctx context.Context, userID, propertyID uuid.UUID) error {
	_, err := myLibrary.Pool.Exec(ctx,
		`INSERT INTO alert_history ("user_id", "property_id", "sent_at") VALUES ($1, $2, $3)`,
		userID, propertyID, time.Now())
	return err
}
