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
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/library"
	"github.com/foreclosurewatch/fwdata/normalize"
)

// Pipeline applies canonical listings to the store: dedupe lookup,
// reliability-gated merge, event lifecycle, and timeline appends. Upserts
// for the same dedupe key are serialized.
type Pipeline struct {
	store Store
	locks *keyLocks
}

func NewPipeline(store Store) *Pipeline {
	return &Pipeline{
		store: store,
		locks: newKeyLocks(),
	}
}

// initialTimelineKind maps a stage to the entry that opens its cycle. An
// unknown stage records nothing until a source pins it down.
func initialTimelineKind(stage data.Stage) (data.TimelineKind, bool) {
	switch stage {
	case data.StagePreForeclosure:
		return data.KindLisPendensFiled, true
	case data.StageSheriffSale:
		return data.KindSheriffSaleScheduled, true
	case data.StageAuction:
		return data.KindAuctionListed, true
	case data.StageREO:
		return data.KindSoldToPlaintiff, true
	}
	return "", false
}

// UpsertListing applies one canonical listing. It reports whether a new
// property was created (as opposed to an existing one updated).
func (pipeline *Pipeline) UpsertListing(ctx context.Context, listing *normalize.CanonicalListing, county string) (bool, error) {
	unlock := pipeline.locks.lock(listing.DedupeKey)
	defer unlock()

	property, err := pipeline.store.PropertyByDedupeKey(ctx, listing.DedupeKey)
	switch {
	case errors.Is(err, library.ErrNotFound):
		if err := pipeline.create(ctx, listing, county); err != nil {
			if errors.Is(err, library.ErrDuplicate) {
				// lost a create race with another ingestion process
				property, err = pipeline.store.PropertyByDedupeKey(ctx, listing.DedupeKey)
				if err != nil {
					return false, err
				}
				return false, pipeline.update(ctx, property, listing)
			}
			return false, err
		}
		return true, nil
	case err != nil:
		return false, err
	}

	return false, pipeline.update(ctx, property, listing)
}

func (pipeline *Pipeline) create(ctx context.Context, listing *normalize.CanonicalListing, county string) error {
	now := time.Now()

	property := &data.Property{
		ID:        uuid.New(),
		DedupeKey: listing.DedupeKey,
		Address: data.Address{
			Full:   listing.Address.Full,
			Street: streetLine(listing.Address),
			City:   listing.Address.City,
			County: county,
			State:  listing.Address.State,
			Zip:    listing.Address.Zip,
		},
		Beds:               listing.Beds,
		Baths:              listing.Baths,
		LotSizeSqft:        listing.LotSizeSqft,
		PropertyType:       listing.PropertyType,
		Occupancy:          listing.Occupancy,
		EstimatedValue:     listing.EstimatedValue,
		EquityAmount:       equityAmount(listing.EstimatedValue, listing.OpeningBid),
		EquityPct:          listing.EquityPct,
		HeuristicBand:      listing.HeuristicBand,
		SourceType:         listing.Source.Type,
		SourceName:         listing.Source.Name,
		SourceURL:          listing.Source.URL,
		SourceReliability:  listing.Source.Reliability,
		Notes:              listing.Notes,
		EnrichmentDirty:    true,
		IngestionTimestamp: now,
		LastUpdated:        now,
		LastSeenAt:         now,
	}

	if err := pipeline.store.SaveProperty(ctx, property); err != nil {
		return err
	}

	event := &data.ForeclosureEvent{
		PropertyID:     property.ID,
		Stage:          listing.Stage,
		Status:         listing.Status,
		SaleDate:       listing.SaleDate,
		OpeningBid:     listing.OpeningBid,
		JudgmentAmount: listing.JudgmentAmount,
		Plaintiff:      listing.Plaintiff,
		Defendant:      listing.Defendant,
		OwnerPhone:     listing.OwnerPhone,
		OpenedAt:       now,
	}
	if err := pipeline.store.OpenEvent(ctx, event); err != nil {
		return err
	}

	if kind, ok := initialTimelineKind(listing.Stage); ok {
		entryDate := now
		if listing.SaleDate != nil {
			entryDate = *listing.SaleDate
		}

		if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
			PropertyID:  property.ID,
			Kind:        kind,
			Date:        entryDate,
			Source:      listing.Source.Name,
			Description: fmt.Sprintf("first observed at stage %s", listing.Stage),
		}); err != nil {
			return err
		}
	}

	log.Debug().Str("DedupeKey", property.DedupeKey).Str("Stage", string(listing.Stage)).Msg("created property")

	return nil
}

func (pipeline *Pipeline) update(ctx context.Context, property *data.Property, listing *normalize.CanonicalListing) error {
	now := time.Now()

	event, err := pipeline.store.ActiveEvent(ctx, property.ID)
	if errors.Is(err, library.ErrNotFound) {
		event = nil
	} else if err != nil {
		return err
	}

	accept := listing.Source.Reliability >= property.SourceReliability

	changed := false
	if accept {
		changed = mergeProperty(property, listing)
	} else {
		changed = fillBlanks(property, listing)
	}

	if event == nil {
		// property resurfaced: a fresh foreclosure cycle opens from any source
		if err := pipeline.openCycle(ctx, property, listing, now); err != nil {
			return err
		}
		changed = true
	} else if accept {
		eventChanged, err := pipeline.applyEventChanges(ctx, property, event, listing, now)
		if err != nil {
			return err
		}
		changed = changed || eventChanged
	}

	var bid *float64
	if event != nil {
		bid = event.OpeningBid
	}
	if accept || event == nil {
		bid = coalesceFloat(listing.OpeningBid, bid)
	}
	before := property.EquityPct
	recomputeEquity(property, bid)
	if !floatEqual(before, property.EquityPct) {
		property.PrevEquityPct = before
		changed = true
	}

	property.LastSeenAt = now
	if changed {
		property.LastUpdated = now
		property.EnrichmentDirty = true
	}

	return pipeline.store.UpdateProperty(ctx, property)
}

func (pipeline *Pipeline) openCycle(ctx context.Context, property *data.Property, listing *normalize.CanonicalListing, now time.Time) error {
	event := &data.ForeclosureEvent{
		PropertyID:     property.ID,
		Stage:          listing.Stage,
		Status:         listing.Status,
		SaleDate:       listing.SaleDate,
		OpeningBid:     listing.OpeningBid,
		JudgmentAmount: listing.JudgmentAmount,
		Plaintiff:      listing.Plaintiff,
		Defendant:      listing.Defendant,
		OwnerPhone:     listing.OwnerPhone,
		OpenedAt:       now,
	}
	if err := pipeline.store.OpenEvent(ctx, event); err != nil {
		return err
	}

	if kind, ok := initialTimelineKind(listing.Stage); ok {
		entryDate := now
		if listing.SaleDate != nil {
			entryDate = *listing.SaleDate
		}

		if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
			PropertyID:  property.ID,
			Kind:        kind,
			Date:        entryDate,
			Source:      listing.Source.Name,
			Description: fmt.Sprintf("new foreclosure cycle at stage %s", listing.Stage),
		}); err != nil {
			return err
		}
	}

	return nil
}

// applyEventChanges folds the incoming listing into the open event,
// appending timeline entries for every detected change.
func (pipeline *Pipeline) applyEventChanges(ctx context.Context, property *data.Property, event *data.ForeclosureEvent, listing *normalize.CanonicalListing, now time.Time) (bool, error) {
	changes := DetectChanges(event, listing)

	if changes.PriceChanged {
		oldEquity := data.EquityPct(property.EstimatedValue, changes.OldBid)
		newEquity := data.EquityPct(property.EstimatedValue, changes.NewBid)

		if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
			PropertyID:  property.ID,
			Kind:        data.KindPriceChange,
			Date:        now,
			Source:      listing.Source.Name,
			Description: "opening bid moved",
			Payload: data.MarshalPayload(&data.PriceChangePayload{
				OldBid:       changes.OldBid,
				NewBid:       changes.NewBid,
				OldEquityPct: oldEquity,
				NewEquityPct: newEquity,
			}),
		}); err != nil {
			return false, err
		}
	}

	if changes.SaleDateMoved {
		// keyed on the new date so re-ingesting the same adjournment is a no-op
		if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
			PropertyID:  property.ID,
			Kind:        data.KindSheriffSaleAdjourned,
			Date:        *changes.NewSaleDate,
			Source:      listing.Source.Name,
			Description: "sale date moved",
			Payload: data.MarshalPayload(&data.AdjournmentPayload{
				OriginalDate: changes.OldSaleDate.Format("2006-01-02"),
				NewDate:      changes.NewSaleDate.Format("2006-01-02"),
			}),
		}); err != nil {
			return false, err
		}
	}

	if changes.SaleDateSet {
		if kind, ok := initialTimelineKind(event.Stage); ok && (kind == data.KindSheriffSaleScheduled || kind == data.KindAuctionListed) {
			if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
				PropertyID:  property.ID,
				Kind:        kind,
				Date:        *changes.NewSaleDate,
				Source:      listing.Source.Name,
				Description: "sale date published",
			}); err != nil {
				return false, err
			}
		}
	}

	if changes.StageAdvanced {
		if err := pipeline.advanceStage(ctx, property, event, listing, changes, now); err != nil {
			return false, err
		}
		return true, nil
	}

	return pipeline.updateEventInPlace(ctx, event, listing, changes)
}

// advanceStage closes the current event and opens one at the higher stage.
func (pipeline *Pipeline) advanceStage(ctx context.Context, property *data.Property, event *data.ForeclosureEvent, listing *normalize.CanonicalListing, changes *ChangeSet, now time.Time) error {
	next := &data.ForeclosureEvent{
		PropertyID:     property.ID,
		Stage:          listing.Stage,
		Status:         listing.Status,
		SaleDate:       coalesceTime(listing.SaleDate, event.SaleDate),
		OpeningBid:     coalesceFloat(listing.OpeningBid, event.OpeningBid),
		JudgmentAmount: coalesceFloat(listing.JudgmentAmount, event.JudgmentAmount),
		Plaintiff:      coalesceString(listing.Plaintiff, event.Plaintiff),
		Defendant:      coalesceString(listing.Defendant, event.Defendant),
		OwnerPhone:     coalesceString(listing.OwnerPhone, event.OwnerPhone),
		OpenedAt:       now,
	}
	if err := pipeline.store.OpenEvent(ctx, next); err != nil {
		return err
	}

	if kind, ok := initialTimelineKind(listing.Stage); ok {
		entryDate := now
		if next.SaleDate != nil {
			entryDate = *next.SaleDate
		}

		if _, err := pipeline.store.AppendTimeline(ctx, &data.TimelineEntry{
			PropertyID:  property.ID,
			Kind:        kind,
			Date:        entryDate,
			Source:      listing.Source.Name,
			Description: fmt.Sprintf("stage advanced from %s to %s", changes.FromStage, changes.ToStage),
			Payload: data.MarshalPayload(&data.StageChangePayload{
				From: changes.FromStage,
				To:   changes.ToStage,
			}),
		}); err != nil {
			return err
		}
	}

	return nil
}

// updateEventInPlace folds non-structural changes into the open event.
func (pipeline *Pipeline) updateEventInPlace(ctx context.Context, event *data.ForeclosureEvent, listing *normalize.CanonicalListing, changes *ChangeSet) (bool, error) {
	changed := changes.PriceChanged || changes.StageMoved || changes.SaleDateMoved || changes.SaleDateSet

	if changes.StageMoved {
		event.Stage = listing.Stage
	}
	if changes.PriceChanged || (event.OpeningBid == nil && listing.OpeningBid != nil) {
		if event.OpeningBid == nil && listing.OpeningBid != nil {
			changed = true
		}
		event.OpeningBid = listing.OpeningBid
	}
	if changes.SaleDateMoved || changes.SaleDateSet {
		event.SaleDate = listing.SaleDate
	}
	if listing.Status != "" && listing.Status != event.Status {
		event.Status = listing.Status
		changed = true
	}
	if event.JudgmentAmount == nil && listing.JudgmentAmount != nil {
		event.JudgmentAmount = listing.JudgmentAmount
		changed = true
	}
	if event.Plaintiff == "" && listing.Plaintiff != "" {
		event.Plaintiff = listing.Plaintiff
		changed = true
	}
	if event.Defendant == "" && listing.Defendant != "" {
		event.Defendant = listing.Defendant
		changed = true
	}
	if event.OwnerPhone == "" && listing.OwnerPhone != "" {
		event.OwnerPhone = listing.OwnerPhone
		changed = true
	}

	if !changed {
		return false, nil
	}

	return true, pipeline.store.UpdateEvent(ctx, event)
}

// mergeProperty overwrites property facts with incoming values from an
// equal-or-higher reliability source. Reports whether anything changed.
func mergeProperty(property *data.Property, listing *normalize.CanonicalListing) bool {
	changed := false

	if listing.EstimatedValue != nil && !floatEqual(property.EstimatedValue, listing.EstimatedValue) {
		property.EstimatedValue = listing.EstimatedValue
		changed = true
	}
	if listing.Beds != nil && !intEqual(property.Beds, listing.Beds) {
		property.Beds = listing.Beds
		changed = true
	}
	if listing.Baths != nil && !floatEqual(property.Baths, listing.Baths) {
		property.Baths = listing.Baths
		changed = true
	}
	if listing.LotSizeSqft != nil && !intEqual(property.LotSizeSqft, listing.LotSizeSqft) {
		property.LotSizeSqft = listing.LotSizeSqft
		changed = true
	}
	if listing.PropertyType != "" && listing.PropertyType != property.PropertyType {
		property.PropertyType = listing.PropertyType
		changed = true
	}
	if listing.Occupancy != "" && listing.Occupancy != property.Occupancy {
		property.Occupancy = listing.Occupancy
		changed = true
	}
	if listing.Notes != "" && listing.Notes != property.Notes {
		property.Notes = listing.Notes
		changed = true
	}

	property.SourceType = listing.Source.Type
	property.SourceName = listing.Source.Name
	if listing.Source.URL != "" {
		property.SourceURL = listing.Source.URL
	}
	property.SourceReliability = listing.Source.Reliability

	return changed
}

// fillBlanks lets a lower-reliability source add facts nobody else has
// supplied, without overwriting anything.
func fillBlanks(property *data.Property, listing *normalize.CanonicalListing) bool {
	changed := false

	if property.EstimatedValue == nil && listing.EstimatedValue != nil {
		property.EstimatedValue = listing.EstimatedValue
		changed = true
	}
	if property.Beds == nil && listing.Beds != nil {
		property.Beds = listing.Beds
		changed = true
	}
	if property.Baths == nil && listing.Baths != nil {
		property.Baths = listing.Baths
		changed = true
	}
	if property.LotSizeSqft == nil && listing.LotSizeSqft != nil {
		property.LotSizeSqft = listing.LotSizeSqft
		changed = true
	}
	if property.PropertyType == "" && listing.PropertyType != "" {
		property.PropertyType = listing.PropertyType
		changed = true
	}
	if property.Occupancy == "" && listing.Occupancy != "" {
		property.Occupancy = listing.Occupancy
		changed = true
	}
	if property.Notes == "" && listing.Notes != "" {
		property.Notes = listing.Notes
		changed = true
	}

	return changed
}

// recomputeEquity refreshes the derived equity fields after a merge.
func recomputeEquity(property *data.Property, openingBid *float64) {
	property.EquityAmount = equityAmount(property.EstimatedValue, openingBid)
	property.EquityPct = data.EquityPct(property.EstimatedValue, openingBid)
	property.HeuristicBand = normalize.HeuristicBand(property.EquityPct)
}

func equityAmount(estimatedValue, openingBid *float64) *float64 {
	if estimatedValue == nil || openingBid == nil {
		return nil
	}

	amount := *estimatedValue - *openingBid
	return &amount
}

func streetLine(addr *normalize.CanonicalAddress) string {
	parts := make([]string, 0, 4)
	if addr.HouseNumber != "" {
		parts = append(parts, addr.HouseNumber)
	}
	parts = append(parts, addr.Street...)
	if addr.Unit != "" {
		parts = append(parts, addr.Unit)
	}

	return strings.Join(parts, " ")
}

func coalesceTime(a, b *time.Time) *time.Time {
	if a != nil {
		return a
	}
	return b
}

func coalesceFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func coalesceString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func floatEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
