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

// Package alert matches changed listings against saved-search buy boxes and
// delivers per-user digests. Noise reduction is the point: only new or
// significantly changed listings alert, repeats are suppressed for a week,
// and digests are capped.
package alert

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
)

const (
	// SuppressionWindow is how long a (user, property) pair stays quiet
	// after an alert.
	SuppressionWindow = 7 * 24 * time.Hour

	// DigestCap is the most alerts one digest carries; overflow is
	// summarized as "50+".
	DigestCap = 50

	// newListingWindow treats recently ingested properties as alertable
	// even without a timeline change.
	newListingWindow = 24 * time.Hour
)

// Store is the slice of the library the alert engine reads and writes.
type Store interface {
	SavedSearches(ctx context.Context, alertsOnly bool) ([]*data.SavedSearch, error)
	AlertCandidates(ctx context.Context, since time.Time) ([]*data.ActiveListing, error)
	TimelineSince(ctx context.Context, propertyID uuid.UUID, since time.Time) ([]*data.TimelineEntry, error)
	AlertedWithin(ctx context.Context, userID, propertyID uuid.UUID, window time.Duration) (bool, error)
	RecordAlert(ctx context.Context, userID, propertyID uuid.UUID) error
	MarkSearchRun(ctx context.Context, searchID uuid.UUID, ranAt time.Time) error
}

// Alert is one matched listing for one saved search.
type Alert struct {
	Search  *data.SavedSearch
	Listing *data.ActiveListing
	Reasons []string
}

// Digest is everything one user gets from a single engine run.
type Digest struct {
	UserID uuid.UUID
	Alerts []*Alert

	// Overflow means the cap was hit; present as "50+".
	Overflow bool
}

// Notifier delivers a digest to a user.
type Notifier interface {
	Deliver(ctx context.Context, digest *Digest) error
}

// Engine evaluates saved searches against changed listings.
type Engine struct {
	store    Store
	notifier Notifier
}

func NewEngine(store Store, notifier Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// Run performs one evaluation pass and returns the number of alerts
// delivered (counting each listing-search match once).
func (engine *Engine) Run(ctx context.Context) (int, error) {
	ranAt := time.Now()

	searches, err := engine.store.SavedSearches(ctx, true)
	if err != nil {
		return 0, err
	}
	if len(searches) == 0 {
		return 0, nil
	}

	// one candidate fetch at the oldest watermark covers every search
	oldest := ranAt
	for _, search := range searches {
		if search.LastRunAt == nil {
			oldest = time.Time{}
			break
		}
		if search.LastRunAt.Before(oldest) {
			oldest = *search.LastRunAt
		}
	}

	candidates, err := engine.store.AlertCandidates(ctx, oldest)
	if err != nil {
		return 0, err
	}

	digests := make(map[uuid.UUID]*Digest)
	delivered := 0

	for _, search := range searches {
		since := time.Time{}
		if search.LastRunAt != nil {
			since = *search.LastRunAt
		}

		for _, candidate := range candidates {
			if !Matches(&search.Filter, candidate) {
				continue
			}

			// a failure on one match never blocks the rest of the run
			reasons, err := engine.significantReasons(ctx, search, candidate, since)
			if err != nil {
				log.Error().Err(err).Str("DedupeKey", candidate.Property.DedupeKey).
					Msg("could not evaluate significance; skipping match")
				continue
			}
			if len(reasons) == 0 {
				continue
			}

			suppressed, err := engine.store.AlertedWithin(ctx, search.UserID, candidate.Property.ID, SuppressionWindow)
			if err != nil {
				log.Error().Err(err).Str("DedupeKey", candidate.Property.DedupeKey).
					Msg("could not check alert history; skipping match")
				continue
			}
			if suppressed {
				continue
			}

			digest, ok := digests[search.UserID]
			if !ok {
				digest = &Digest{UserID: search.UserID}
				digests[search.UserID] = digest
			}

			if len(digest.Alerts) >= DigestCap {
				digest.Overflow = true
				continue
			}

			digest.Alerts = append(digest.Alerts, &Alert{
				Search:  search,
				Listing: candidate,
				Reasons: reasons,
			})
		}
	}

	for _, digest := range digests {
		if len(digest.Alerts) == 0 {
			continue
		}

		if err := engine.notifier.Deliver(ctx, digest); err != nil {
			log.Error().Err(err).Str("UserID", digest.UserID.String()).Msg("could not deliver digest")
			continue
		}

		delivered += len(digest.Alerts)
		for _, alert := range digest.Alerts {
			if err := engine.store.RecordAlert(ctx, digest.UserID, alert.Listing.Property.ID); err != nil {
				log.Error().Err(err).Msg("could not record alert history")
			}
		}
	}

	for _, search := range searches {
		if err := engine.store.MarkSearchRun(ctx, search.ID, ranAt); err != nil {
			log.Error().Err(err).Str("SearchID", search.ID.String()).Msg("could not advance search watermark")
		}
	}

	return delivered, nil
}

// significantReasons applies the noise gate: a listing alerts only when it
// is newly ingested or its timeline gained a significant entry since the
// search last ran. Sale-date moves only matter to searches hunting upcoming
// auctions (an unrestricted stage filter counts as hunting everything).
func (engine *Engine) significantReasons(ctx context.Context, search *data.SavedSearch, candidate *data.ActiveListing, since time.Time) ([]string, error) {
	if time.Since(candidate.Property.IngestionTimestamp) < newListingWindow {
		return []string{"new listing"}, nil
	}

	entries, err := engine.store.TimelineSince(ctx, candidate.Property.ID, since)
	if err != nil {
		return nil, err
	}

	auctionIntent := len(search.Filter.Stages) == 0 || search.Filter.WantsUpcomingAuctions()

	reasons := make([]string, 0, 2)
	for _, entry := range entries {
		switch entry.Kind {
		case data.KindPriceChange:
			if isPriceDrop(entry.Payload) {
				reasons = append(reasons, "price drop")
			}
		case data.KindSheriffSaleAdjourned:
			if auctionIntent {
				reasons = append(reasons, "sale date moved")
			}
		case data.KindSheriffSaleScheduled, data.KindAuctionListed:
			if auctionIntent {
				reasons = append(reasons, "sale scheduled")
			}
		case data.KindLisPendensFiled, data.KindSoldToPlaintiff, data.KindFinalJudgment:
			reasons = append(reasons, "stage change")
		}
	}

	if candidate.Property.LastUpdated.After(since) &&
		crossedEquityFloor(search.Filter.MinEquityPct, candidate.Property) {
		reasons = append(reasons, "equity change")
	}

	return dedupeReasons(reasons), nil
}

// isPriceDrop decodes a PRICE_CHANGE payload and reports whether the opening
// bid moved down. Increases shrink equity and are gated out as noise.
func isPriceDrop(payload json.RawMessage) bool {
	var move data.PriceChangePayload
	if err := json.Unmarshal(payload, &move); err != nil {
		return false
	}
	if move.OldBid == nil || move.NewBid == nil {
		return false
	}

	return *move.NewBid < *move.OldBid
}

// crossedEquityFloor reports whether the property's most recent valuation
// move carried equity_pct across the search's minimum-equity boundary.
func crossedEquityFloor(floor *float64, property *data.Property) bool {
	if floor == nil || property.EquityPct == nil || property.PrevEquityPct == nil {
		return false
	}

	return (*property.PrevEquityPct < *floor) != (*property.EquityPct < *floor)
}

func dedupeReasons(reasons []string) []string {
	seen := make(map[string]bool, len(reasons))
	unique := reasons[:0]
	for _, reason := range reasons {
		if !seen[reason] {
			seen[reason] = true
			unique = append(unique, reason)
		}
	}
	return unique
}

// Matches applies the buy-box predicate. Every populated filter field must
// match; a listing missing a fact a filter needs does not match.
func Matches(filter *data.SearchFilter, candidate *data.ActiveListing) bool {
	property := candidate.Property
	event := candidate.Event

	if filter.Zip != "" && filter.Zip != property.Address.Zip {
		return false
	}
	if !matchesCity(filter, property.Address.City) {
		return false
	}
	if filter.County != "" && !strings.EqualFold(filter.County, property.Address.County) {
		return false
	}

	if len(filter.Stages) > 0 {
		if event == nil {
			return false
		}
		found := false
		for _, stage := range filter.Stages {
			if stage == event.Stage {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.MinEquityPct != nil {
		if property.EquityPct == nil || *property.EquityPct < *filter.MinEquityPct {
			return false
		}
	}

	if maxPrice := filter.EffectiveMaxPrice(); maxPrice != nil {
		price := property.EstimatedValue
		if event != nil && event.OpeningBid != nil {
			price = event.OpeningBid
		}
		if price == nil || *price > *maxPrice {
			return false
		}
	}

	if len(filter.PropertyTypes) > 0 {
		found := false
		for _, propertyType := range filter.PropertyTypes {
			if strings.EqualFold(propertyType, property.PropertyType) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.MinBeds != nil && (property.Beds == nil || *property.Beds < *filter.MinBeds) {
		return false
	}
	if filter.MaxBeds != nil && (property.Beds == nil || *property.Beds > *filter.MaxBeds) {
		return false
	}
	if filter.MinBaths != nil && (property.Baths == nil || *property.Baths < *filter.MinBaths) {
		return false
	}
	if filter.MaxBaths != nil && (property.Baths == nil || *property.Baths > *filter.MaxBaths) {
		return false
	}
	if filter.MinLotSqft != nil && (property.LotSizeSqft == nil || *property.LotSizeSqft < *filter.MinLotSqft) {
		return false
	}
	if filter.MaxLotSqft != nil && (property.LotSizeSqft == nil || *property.LotSizeSqft > *filter.MaxLotSqft) {
		return false
	}

	if filter.Lat != nil && filter.Lng != nil && filter.RadiusMiles != nil {
		if property.Address.Lat == nil || property.Address.Lng == nil {
			return false
		}
		if distanceMiles(*filter.Lat, *filter.Lng, *property.Address.Lat, *property.Address.Lng) > *filter.RadiusMiles {
			return false
		}
	}

	return true
}

func matchesCity(filter *data.SearchFilter, city string) bool {
	if filter.City == "" && len(filter.Cities) == 0 {
		return true
	}

	if filter.City != "" && strings.EqualFold(filter.City, city) {
		return true
	}
	for _, candidate := range filter.Cities {
		if strings.EqualFold(candidate, city) {
			return true
		}
	}

	return false
}
