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

// Package library is the Postgres persistence layer: properties, foreclosure
// events, timelines, saved searches, alert history, and the operational
// tables (dead letters, ingest volume, verification tasks).
package library

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Library struct {
	DBUrl string

	Pool *pgxpool.Pool
}

// Connect to the database configured for the library
func (myLibrary *Library) Connect(ctx context.Context) error {
	if myLibrary.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myLibrary.DBUrl)
	if err != nil {
		return err
	}
	myLibrary.Pool = pool

	return nil
}

// Close the database pool
func (myLibrary *Library) Close() {
	myLibrary.Pool.Close()
}

// NewFromDB creates a new library object connected to the given database
func NewFromDB(ctx context.Context, dbURL string) (*Library, error) {
	myLibrary := &Library{DBUrl: dbURL}
	if err := myLibrary.Connect(ctx); err != nil {
		return nil, err
	}

	if err := myLibrary.Pool.Ping(ctx); err != nil {
		return nil, err
	}

	return myLibrary, nil
}

// NumProperties returns the total count of tracked properties
func (myLibrary *Library) NumProperties(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM properties").Scan(&count)
	return count, err
}

// NumActiveEvents returns the count of open foreclosure events
func (myLibrary *Library) NumActiveEvents(ctx context.Context) (int, error) {
	count := 0
	err := myLibrary.Pool.QueryRow(ctx, "SELECT count(*) FROM foreclosure_events WHERE active='t'").Scan(&count)
	return count, err
}

// LastUpdated returns the date the property table last changed
func (myLibrary *Library) LastUpdated(ctx context.Context) (time.Time, error) {
	var lastUpdated time.Time
	err := myLibrary.Pool.QueryRow(ctx,
		"SELECT coalesce(max(last_updated), '0001-01-01'::timestamptz) FROM properties").Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, err
	}

	return lastUpdated, nil
}
