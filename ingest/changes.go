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
	"math"
	"time"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/normalize"
)

// priceChangeThreshold is the relative opening-bid move that counts as a
// price change worth a timeline entry.
const priceChangeThreshold = 0.05

// ChangeSet describes what an incoming listing changes about the property's
// open foreclosure event.
type ChangeSet struct {
	PriceChanged bool
	OldBid       *float64
	NewBid       *float64

	// StageAdvanced is a rank increase (a new cycle step); StageMoved is a
	// lateral transition between same-rank stages.
	StageAdvanced bool
	StageMoved    bool
	FromStage     data.Stage
	ToStage       data.Stage

	SaleDateMoved bool
	SaleDateSet   bool
	OldSaleDate   *time.Time
	NewSaleDate   *time.Time
}

// Significant reports whether the change should wake the alert engine.
func (changes *ChangeSet) Significant() bool {
	return changes.PriceChanged || changes.StageAdvanced || changes.SaleDateMoved
}

// DetectChanges compares an incoming listing against the property's open
// event. A nil event (no open cycle) detects nothing; the caller opens a
// fresh cycle instead.
func DetectChanges(event *data.ForeclosureEvent, listing *normalize.CanonicalListing) *ChangeSet {
	changes := &ChangeSet{}
	if event == nil {
		return changes
	}

	if event.OpeningBid != nil && listing.OpeningBid != nil && *event.OpeningBid > 0 {
		move := math.Abs(*listing.OpeningBid-*event.OpeningBid) / *event.OpeningBid
		if move > priceChangeThreshold {
			changes.PriceChanged = true
			changes.OldBid = event.OpeningBid
			changes.NewBid = listing.OpeningBid
		}
	}

	if listing.Stage != data.StageUnknown && listing.Stage != event.Stage {
		changes.FromStage = event.Stage
		changes.ToStage = listing.Stage
		if listing.Stage.Rank() > event.Stage.Rank() {
			changes.StageAdvanced = true
		} else if listing.Stage.Rank() == event.Stage.Rank() {
			changes.StageMoved = true
		}
		// a rank decrease is stale data from a lagging source; ignored
	}

	if listing.SaleDate != nil {
		switch {
		case event.SaleDate == nil:
			changes.SaleDateSet = true
			changes.NewSaleDate = listing.SaleDate
		case !sameDay(*event.SaleDate, *listing.SaleDate):
			changes.SaleDateMoved = true
			changes.OldSaleDate = event.SaleDate
			changes.NewSaleDate = listing.SaleDate
		}
	}

	return changes
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
