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
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
)

const eventColumns = `id, property_id, stage, status, sale_date, opening_bid,
judgment_amount, plaintiff, defendant, owner_phone, active, pending_verification,
opened_at, closed_at`

// ActiveEvent returns the open foreclosure event for a property, or
// ErrNotFound when no cycle is in progress.
func (myLibrary *Library) ActiveEvent(ctx context.Context, propertyID uuid.UUID) (*data.ForeclosureEvent, error) {
	event := &data.ForeclosureEvent{}
	err := pgxscan.Get(ctx, myLibrary.Pool, event,
		`SELECT `+eventColumns+` FROM foreclosure_events WHERE property_id=$1 AND active='t'`,
		propertyID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	return event, err
}

// OpenEvent closes any active event on the property and opens the given one
// in the same transaction, preserving the one-active-event invariant.
func (myLibrary *Library) OpenEvent(ctx context.Context, event *data.ForeclosureEvent) error {
	tx, err := myLibrary.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil {
			if !errors.Is(err, pgx.ErrTxClosed) {
				log.Error().Err(err).Msg("error rollingback tx")
			}
		}
	}()

	if _, err := tx.Exec(ctx,
		`UPDATE foreclosure_events SET active='f', closed_at=$2 WHERE property_id=$1 AND active='t'`,
		event.PropertyID, time.Now()); err != nil {
		return err
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Active = true

	if _, err := tx.Exec(ctx, `INSERT INTO foreclosure_events
("id", "property_id", "stage", "status", "sale_date", "opening_bid", "judgment_amount",
 "plaintiff", "defendant", "owner_phone", "active", "pending_verification", "opened_at")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
		event.ID, event.PropertyID, event.Stage, event.Status, event.SaleDate,
		event.OpeningBid, event.JudgmentAmount, event.Plaintiff, event.Defendant,
		event.OwnerPhone, event.Active, event.PendingVerification, event.OpenedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateEvent writes changed fields of an open event back by id.
func (myLibrary *Library) UpdateEvent(ctx context.Context, event *data.ForeclosureEvent) error {
	_, err := myLibrary.Pool.Exec(ctx, `UPDATE foreclosure_events SET
 stage=$2, status=$3, sale_date=$4, opening_bid=$5, judgment_amount=$6, plaintiff=$7,
 defendant=$8, owner_phone=$9, active=$10, pending_verification=$11, closed_at=$12
WHERE id=$1`,
		event.ID, event.Stage, event.Status, event.SaleDate, event.OpeningBid,
		event.JudgmentAmount, event.Plaintiff, event.Defendant, event.OwnerPhone,
		event.Active, event.PendingVerification, event.ClosedAt)

	return err
}

// CloseEvent marks an event inactive, ending the foreclosure cycle.
func (myLibrary *Library) CloseEvent(ctx context.Context, eventID uuid.UUID) error {
	_, err := myLibrary.Pool.Exec(ctx,
		`UPDATE foreclosure_events SET active='f', closed_at=$2 WHERE id=$1`,
		eventID, time.Now())
	return err
}

// AppendTimeline appends an audit entry to a property's history. The
// (property_id, kind, event_date) identity makes the append idempotent;
// the return value reports whether a new entry was actually written.
func (myLibrary *Library) AppendTimeline(ctx context.Context, entry *data.TimelineEntry) (bool, error) {
	tag, err := myLibrary.Pool.Exec(ctx, `INSERT INTO timeline_entries
("property_id", "kind", "event_date", "source", "description", "payload")
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (property_id, kind, event_date) DO NOTHING;`,
		entry.PropertyID, entry.Kind, entry.Date, entry.Source, entry.Description,
		entry.Payload)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// Timeline returns a property's history, newest first.
func (myLibrary *Library) Timeline(ctx context.Context, propertyID uuid.UUID) ([]*data.TimelineEntry, error) {
	var entries []*data.TimelineEntry
	err := pgxscan.Select(ctx, myLibrary.Pool, &entries,
		`SELECT id, property_id, kind, event_date, source, description, payload, created_at
FROM timeline_entries WHERE property_id=$1 ORDER BY event_date DESC, id DESC`,
		propertyID)

	return entries, err
}

// TimelineSince returns entries appended for a property since the given
// time, oldest first.
func (myLibrary *Library) TimelineSince(ctx context.Context, propertyID uuid.UUID, since time.Time) ([]*data.TimelineEntry, error) {
	var entries []*data.TimelineEntry
	err := pgxscan.Select(ctx, myLibrary.Pool, &entries,
		`SELECT id, property_id, kind, event_date, source, description, payload, created_at
FROM timeline_entries WHERE property_id=$1 AND created_at >= $2 ORDER BY created_at`,
		propertyID, since)

	return entries, err
}

// StaleActiveSales returns listings whose active sheriff sale or auction has
// a sale date on or before asOf. The reconciliation job checks these against
// what the sources still publish.
func (myLibrary *Library) StaleActiveSales(ctx context.Context, asOf time.Time) ([]*data.ActiveListing, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT `+prefixColumns("p", propertyColumns)+`, `+prefixColumns("e", eventColumns)+`
FROM properties p JOIN foreclosure_events e ON e.property_id = p.id
WHERE e.active='t' AND e.pending_verification='f'
  AND e.stage IN ('SHERIFF_SALE', 'AUCTION')
  AND e.sale_date IS NOT NULL AND e.sale_date <= $1`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}
