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

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/foreclosurewatch/fwdata/data"
)

// DeadLetter stores a raw listing that failed processing, preserving the
// payload verbatim for replay after the underlying fault is fixed.
func (myLibrary *Library) DeadLetter(ctx context.Context, adapterID, dedupeKey, reason string, raw *data.RawListing) error {
	payload, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	_, err = myLibrary.Pool.Exec(ctx, `INSERT INTO dead_letters
("adapter_id", "dedupe_key", "payload", "reason") VALUES ($1, $2, $3, $4)`,
		adapterID, dedupeKey, payload, reason)
	return err
}

// DeadLetters lists stored dead letters, newest first.
func (myLibrary *Library) DeadLetters(ctx context.Context, limit int) ([]*data.DeadLetter, error) {
	var letters []*data.DeadLetter
	err := pgxscan.Select(ctx, myLibrary.Pool, &letters,
		`SELECT id, adapter_id, dedupe_key, payload, reason, created_at
FROM dead_letters ORDER BY created_at DESC LIMIT $1`, limit)

	return letters, err
}

// RecordVolume stores one adapter run's accepted-row count for the
// moving-average yield check.
func (myLibrary *Library) RecordVolume(ctx context.Context, adapterID string, rowCount int) error {
	_, err := myLibrary.Pool.Exec(ctx,
		`INSERT INTO ingest_volume ("adapter_id", "run_at", "row_count") VALUES ($1, $2, $3)`,
		adapterID, time.Now(), rowCount)
	return err
}

// AverageVolume returns an adapter's mean accepted-row count over the given
// window. ok is false when there is no history to average.
func (myLibrary *Library) AverageVolume(ctx context.Context, adapterID string, window time.Duration) (avg float64, ok bool, err error) {
	var mean *float64
	err = myLibrary.Pool.QueryRow(ctx,
		`SELECT avg(row_count) FROM ingest_volume WHERE adapter_id=$1 AND run_at >= $2`,
		adapterID, time.Now().Add(-window)).Scan(&mean)
	if err != nil || mean == nil {
		return 0, false, err
	}

	return *mean, true, nil
}

// EnqueueVerification opens a task for an operator to resolve.
func (myLibrary *Library) EnqueueVerification(ctx context.Context, propertyID uuid.UUID, kind, detail string) error {
	_, err := myLibrary.Pool.Exec(ctx, `INSERT INTO verification_tasks
("property_id", "kind", "detail") VALUES ($1, $2, $3)`,
		propertyID, kind, detail)
	return err
}

// OpenVerifications lists unresolved verification tasks, oldest first.
func (myLibrary *Library) OpenVerifications(ctx context.Context) ([]*data.VerificationTask, error) {
	var tasks []*data.VerificationTask
	err := pgxscan.Select(ctx, myLibrary.Pool, &tasks,
		`SELECT id, property_id, kind, detail, created_at, resolved_at
FROM verification_tasks WHERE resolved_at IS NULL ORDER BY created_at`)

	return tasks, err
}
