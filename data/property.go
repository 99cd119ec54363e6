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

// Address is the canonical location of a property. State is the 2-letter
// postal code and Zip is always 5 digits.
type Address struct {
	Full   string   `json:"full" db:"address_full"`
	Street string   `json:"street" db:"address_street"`
	City   string   `json:"city" db:"address_city"`
	County string   `json:"county" db:"address_county"`
	State  string   `json:"state" db:"address_state"`
	Zip    string   `json:"zip" db:"address_zip"`
	Lat    *float64 `json:"lat" db:"lat"`
	Lng    *float64 `json:"lng" db:"lng"`
}

// Property is the canonical real-estate asset. It is created the first time
// a dedupe key is observed and is never deleted; foreclosure cycles attach
// and detach events but the property row is stable.
type Property struct {
	ID        uuid.UUID `json:"id" db:"id"`
	DedupeKey string    `json:"dedupe_key" db:"dedupe_key"`

	Address Address `json:"address" db:""`

	Beds         *int     `json:"beds" db:"beds"`
	Baths        *float64 `json:"baths" db:"baths"`
	LotSizeSqft  *int     `json:"lot_size_sqft" db:"lot_size_sqft"`
	PropertyType string   `json:"property_type" db:"property_type"`
	Occupancy    string   `json:"occupancy" db:"occupancy"`

	EstimatedValue *float64 `json:"estimated_value" db:"estimated_value"`
	EquityAmount   *float64 `json:"equity_amount" db:"equity_amount"`
	EquityPct      *float64 `json:"equity_pct" db:"equity_pct"`

	// PrevEquityPct is the equity position before the most recent merge
	// that moved it; the alert engine compares the pair against a search's
	// equity floor to spot boundary crossings.
	PrevEquityPct *float64 `json:"prev_equity_pct" db:"prev_equity_pct"`

	// HeuristicBand is derived purely from equity and is never overwritten
	// by enrichment; the analyzed band lives on Risk.
	HeuristicBand RiskBand      `json:"heuristic_band" db:"heuristic_band"`
	Risk          *RiskAnalysis `json:"risk,omitempty" db:""`

	SourceType        SourceType `json:"source_type" db:"source_type"`
	SourceName        string     `json:"source_name" db:"source_name"`
	SourceURL         string     `json:"source_url" db:"source_url"`
	SourceReliability float64    `json:"source_reliability" db:"source_reliability"`

	Notes string `json:"notes" db:"notes"`

	EnrichmentDirty bool `json:"enrichment_dirty" db:"enrichment_dirty"`

	IngestionTimestamp time.Time `json:"ingestion_timestamp" db:"ingestion_timestamp"`
	LastUpdated        time.Time `json:"last_updated" db:"last_updated"`
	LastSeenAt         time.Time `json:"last_seen_at" db:"last_seen_at"`
}

// EquityPct computes (est - bid) / est * 100, or nil when either input is
// missing or the estimate is non-positive.
func EquityPct(estimatedValue, openingBid *float64) *float64 {
	if estimatedValue == nil || openingBid == nil || *estimatedValue <= 0 {
		return nil
	}

	pct := (*estimatedValue - *openingBid) / *estimatedValue * 100
	return &pct
}
