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
package data

import (
	"time"

	"github.com/google/uuid"
)

// SearchFilter is the serialized buy-box predicate of a saved search. All
// populated fields must match (conjunctive). MaxPrice supersedes the legacy
// max_price key; both are decoded for backwards compatibility with filters
// saved by earlier versions.
type SearchFilter struct {
	Zip    string   `json:"zip,omitempty"`
	City   string   `json:"city,omitempty"`
	Cities []string `json:"cities,omitempty"`
	County string   `json:"county,omitempty"`

	Stages []Stage `json:"stages,omitempty"`

	MinEquityPct *float64 `json:"min_equity_pct,omitempty"`
	MaxPrice     *float64 `json:"maxPrice,omitempty"`
	LegacyMax    *float64 `json:"max_price,omitempty"`

	PropertyTypes []string `json:"property_types,omitempty"`

	MinBeds     *int     `json:"min_beds,omitempty"`
	MaxBeds     *int     `json:"max_beds,omitempty"`
	MinBaths    *float64 `json:"min_baths,omitempty"`
	MaxBaths    *float64 `json:"max_baths,omitempty"`
	MinLotSqft  *int     `json:"min_lot_sqft,omitempty"`
	MaxLotSqft  *int     `json:"max_lot_sqft,omitempty"`

	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	RadiusMiles *float64 `json:"radius_miles,omitempty"`
}

// EffectiveMaxPrice prefers the current maxPrice key over legacy max_price.
func (filter *SearchFilter) EffectiveMaxPrice() *float64 {
	if filter.MaxPrice != nil {
		return filter.MaxPrice
	}
	return filter.LegacyMax
}

// EffectiveCity prefers the scalar city over the first entry of cities[].
func (filter *SearchFilter) EffectiveCity() string {
	if filter.City != "" {
		return filter.City
	}
	if len(filter.Cities) > 0 {
		return filter.Cities[0]
	}
	return ""
}

// WantsUpcomingAuctions reports whether the search targets sheriff sales or
// auctions; sale-date moves only matter to searches with that intent.
func (filter *SearchFilter) WantsUpcomingAuctions() bool {
	for _, stage := range filter.Stages {
		if stage == StageSheriffSale || stage == StageAuction {
			return true
		}
	}
	return false
}

type SavedSearch struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Name   string    `json:"name" db:"name"`
	State  string    `json:"state" db:"state"`

	Filter SearchFilter `json:"filter" db:"filter"`

	AlertsEnabled bool `json:"alerts_enabled" db:"alerts_enabled"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	LastRunAt *time.Time `json:"last_run_at" db:"last_run_at"`
}

// AlertHistory records a delivered alert so repeats inside the cooldown
// window can be suppressed.
type AlertHistory struct {
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`
	SentAt     time.Time `json:"sent_at" db:"sent_at"`
}
