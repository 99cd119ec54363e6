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

type Stage string

const (
	StagePreForeclosure Stage = "PRE_FORECLOSURE"
	StageSheriffSale    Stage = "SHERIFF_SALE"
	StageAuction        Stage = "AUCTION"
	StageREO            Stage = "REO"
	StageUnknown        Stage = "UNKNOWN"
)

// Rank orders stages by foreclosure progression. Sheriff sale and auction
// share a rank; stage transitions between them are lateral, not progression.
func (stage Stage) Rank() int {
	switch stage {
	case StagePreForeclosure:
		return 1
	case StageSheriffSale, StageAuction:
		return 2
	case StageREO:
		return 3
	default:
		return 0
	}
}

// ForeclosureEvent is the temporal legal state attached to a property.
// At most one event per property is active at a time; when the stage or
// sale outcome changes the previous event is closed and a new one opened.
type ForeclosureEvent struct {
	ID         uuid.UUID `json:"id" db:"id"`
	PropertyID uuid.UUID `json:"property_id" db:"property_id"`

	Stage    Stage  `json:"stage" db:"stage"`
	Status   string `json:"status" db:"status"`

	SaleDate       *time.Time `json:"sale_date" db:"sale_date"`
	OpeningBid     *float64   `json:"opening_bid" db:"opening_bid"`
	JudgmentAmount *float64   `json:"judgment_amount" db:"judgment_amount"`

	Plaintiff  string `json:"plaintiff" db:"plaintiff"`
	Defendant  string `json:"defendant" db:"defendant"`
	OwnerPhone string `json:"owner_phone" db:"owner_phone"`

	Active              bool `json:"active" db:"active"`
	PendingVerification bool `json:"pending_verification" db:"pending_verification"`

	OpenedAt time.Time  `json:"opened_at" db:"opened_at"`
	ClosedAt *time.Time `json:"closed_at" db:"closed_at"`
}
