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

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

type TimelineKind string

const (
	KindLisPendensFiled      TimelineKind = "LIS_PENDENS_FILED"
	KindSheriffSaleScheduled TimelineKind = "SHERIFF_SALE_SCHEDULED"
	KindSheriffSaleAdjourned TimelineKind = "SHERIFF_SALE_ADJOURNED"
	KindAuctionListed        TimelineKind = "AUCTION_LISTED"
	KindPriceChange          TimelineKind = "PRICE_CHANGE"
	KindSoldToPlaintiff      TimelineKind = "SOLD_TO_PLAINTIFF"
	KindSoldToThirdParty     TimelineKind = "SOLD_TO_THIRD_PARTY"
	KindListingRemoved       TimelineKind = "LISTING_REMOVED"
	KindFinalJudgment        TimelineKind = "FINAL_JUDGMENT"
)

// TimelineEntry is an immutable audit event appended to a property's
// history. Entries are never mutated after insert; duplicates are
// suppressed by the (property_id, kind, date) identity.
type TimelineEntry struct {
	ID          int64           `json:"id" db:"id"`
	PropertyID  uuid.UUID       `json:"property_id" db:"property_id"`
	Kind        TimelineKind    `json:"kind" db:"kind"`
	Date        time.Time       `json:"date" db:"event_date"`
	Source      string          `json:"source" db:"source"`
	Description string          `json:"description" db:"description"`
	Payload     json.RawMessage `json:"payload" db:"payload"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// PriceChangePayload records an opening-bid move with the equity positions
// on both sides so downstream consumers don't need to re-derive them.
type PriceChangePayload struct {
	OldBid       *float64 `json:"old_bid"`
	NewBid       *float64 `json:"new_bid"`
	OldEquityPct *float64 `json:"old_equity_pct"`
	NewEquityPct *float64 `json:"new_equity_pct"`
}

// AdjournmentPayload records a sale-date move. Dates are ISO (2006-01-02).
type AdjournmentPayload struct {
	OriginalDate string `json:"original_date"`
	NewDate      string `json:"new_date"`
}

// StageChangePayload records a stage transition.
type StageChangePayload struct {
	From Stage `json:"from"`
	To   Stage `json:"to"`
}

// RemovalPayload explains why a listing left its source. The pipeline never
// guesses between sold and adjourned; that distinction waits on verification.
type RemovalPayload struct {
	Reason       string `json:"reason"`
	LastSaleDate string `json:"last_sale_date,omitempty"`
}

// MarshalPayload serializes a payload struct for storage on a timeline
// entry. A nil payload is stored as null.
func MarshalPayload(payload any) json.RawMessage {
	if payload == nil {
		return json.RawMessage("null")
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return json.RawMessage("null")
	}

	return raw
}
