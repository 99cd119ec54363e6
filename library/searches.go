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
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/foreclosurewatch/fwdata/data"
)

const searchColumns = `id, user_id, name, state, filter, alerts_enabled, created_at, last_run_at`

// SavedSearches returns every saved search, optionally only those with
// alerts enabled.
func (myLibrary *Library) SavedSearches(ctx context.Context, alertsOnly bool) ([]*data.SavedSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM saved_searches`
	if alertsOnly {
		query += ` WHERE alerts_enabled='t'`
	}
	query += ` ORDER BY created_at`

	var searches []*data.SavedSearch
	err := pgxscan.Select(ctx, myLibrary.Pool, &searches, query)
	return searches, err
}

// SavedSearchFromID fetches a saved search by id prefix.
func (myLibrary *Library) SavedSearchFromID(ctx context.Context, id string) (*data.SavedSearch, error) {
	search := &data.SavedSearch{}
	err := pgxscan.Get(ctx, myLibrary.Pool, search,
		`SELECT `+searchColumns+` FROM saved_searches WHERE id::text like $1 LIMIT 1`, id+"%")
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	return search, err
}

// SaveSearch inserts a saved search.
func (myLibrary *Library) SaveSearch(ctx context.Context, search *data.SavedSearch) error {
	if search.ID == uuid.Nil {
		search.ID = uuid.New()
	}

	_, err := myLibrary.Pool.Exec(ctx, `INSERT INTO saved_searches
("id", "user_id", "name", "state", "filter", "alerts_enabled")
VALUES ($1, $2, $3, $4, $5, $6);`,
		search.ID, search.UserID, search.Name, search.State, search.Filter,
		search.AlertsEnabled)

	return err
}

// SetSearchAlerts toggles alert delivery for a saved search.
func (myLibrary *Library) SetSearchAlerts(ctx context.Context, searchID uuid.UUID, enabled bool) error {
	_, err := myLibrary.Pool.Exec(ctx,
		`UPDATE saved_searches SET alerts_enabled=$2 WHERE id=$1`, searchID, enabled)
	return err
}

// MarkSearchRun records when the alert engine last evaluated a search.
func (myLibrary *Library) MarkSearchRun(ctx context.Context, searchID uuid.UUID, ranAt time.Time) error {
	_, err := myLibrary.Pool.Exec(ctx,
		`UPDATE saved_searches SET last_run_at=$2 WHERE id=$1`, searchID, ranAt)
	return err
}

// DeleteSearch removes a saved search and its alert history.
func (myLibrary *Library) DeleteSearch(ctx context.Context, searchID uuid.UUID) error {
	_, err := myLibrary.Pool.Exec(ctx, `DELETE FROM saved_searches WHERE id=$1`, searchID)
	return err
}
