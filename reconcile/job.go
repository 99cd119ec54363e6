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

// Package reconcile finds listings that vanished from their sources after
// their sale date passed. Whether a vanished listing sold or was quietly
// adjourned is unknowable from scrape data alone, so the job never guesses:
// it flags, records, and hands the question to an operator.
package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
)

// Store is the slice of the library the reconciliation job uses.
type Store interface {
	StaleActiveSales(ctx context.Context, asOf time.Time) ([]*data.ActiveListing, error)
	UpdateEvent(ctx context.Context, event *data.ForeclosureEvent) error
	AppendTimeline(ctx context.Context, entry *data.TimelineEntry) (bool, error)
	EnqueueVerification(ctx context.Context, propertyID uuid.UUID, kind, detail string) error
}

// Job flags active sheriff sales and auctions whose sale date has passed
// and that the most recent ingestion run no longer saw.
type Job struct {
	store Store
}

func NewJob(store Store) *Job {
	return &Job{store: store}
}

// Run reconciles against the ingestion run that started at runStartedAt.
// It returns the number of listings flagged for verification.
func (job *Job) Run(ctx context.Context, runStartedAt time.Time) (int, error) {
	stale, err := job.store.StaleActiveSales(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, listing := range stale {
		// seen by the latest run means the source still lists it; an
		// adjournment or price move will come through ingestion instead
		if !listing.Property.LastSeenAt.Before(runStartedAt) {
			continue
		}

		if err := job.flag(ctx, listing); err != nil {
			log.Error().Err(err).Str("DedupeKey", listing.Property.DedupeKey).
				Msg("could not flag vanished listing")
			continue
		}
		flagged++
	}

	if flagged > 0 {
		log.Info().Int("Flagged", flagged).Msg("flagged vanished listings for verification")
	}

	return flagged, nil
}

func (job *Job) flag(ctx context.Context, listing *data.ActiveListing) error {
	event := listing.Event
	event.PendingVerification = true
	if err := job.store.UpdateEvent(ctx, event); err != nil {
		return err
	}

	lastSaleDate := ""
	entryDate := time.Now()
	if event.SaleDate != nil {
		lastSaleDate = event.SaleDate.Format("2006-01-02")
		entryDate = *event.SaleDate
	}

	if _, err := job.store.AppendTimeline(ctx, &data.TimelineEntry{
		PropertyID:  listing.Property.ID,
		Kind:        data.KindListingRemoved,
		Date:        entryDate,
		Source:      listing.Property.SourceName,
		Description: "no longer listed at source; likely sold or adjourned",
		Payload: data.MarshalPayload(&data.RemovalPayload{
			Reason:       "likely sold or adjourned",
			LastSaleDate: lastSaleDate,
		}),
	}); err != nil {
		return err
	}

	return job.store.EnqueueVerification(ctx, listing.Property.ID, "vanished_listing",
		"confirm sale outcome for "+listing.Property.Address.Full)
}
