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

// Package normalize converts noisy source rows into canonical foreclosure
// records. Every function here is pure; repeated calls over the same input
// produce equal output.
package normalize

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foreclosurewatch/fwdata/data"
)

// ErrSkipListing is the sentinel returned when a row carries too little
// signal to ingest: the address does not parse beyond its zip, or the row
// has neither a price nor a date nor a status. Callers count these in
// itemsSkippedNormalization.
var ErrSkipListing = errors.New("listing skipped by normalization")

// CanonicalListing is the normalized candidate produced from one raw row,
// ready for dedupe lookup and upsert.
type CanonicalListing struct {
	Address   *CanonicalAddress
	DedupeKey string

	Stage    data.Stage
	Status   string
	SaleDate *time.Time

	OpeningBid     *float64
	EstimatedValue *float64
	JudgmentAmount *float64

	EquityPct     *float64
	HeuristicBand data.RiskBand

	Plaintiff  string
	Defendant  string
	OwnerPhone string

	Beds         *int
	Baths        *float64
	LotSizeSqft  *int
	PropertyType string
	Occupancy    string
	Notes        string

	Source data.Source
}

// HeuristicBand derives a risk band from equity percent alone. It is the
// placeholder used until (and unless) the risk-analysis service scores the
// property.
func HeuristicBand(equityPct *float64) data.RiskBand {
	switch {
	case equityPct == nil:
		return data.BandUnknown
	case *equityPct >= 25:
		return data.BandLow
	case *equityPct >= 10:
		return data.BandModerate
	default:
		return data.BandHigh
	}
}

// NormalizeRawListing converts one raw source row into a canonical listing.
// Returns ErrSkipListing (possibly wrapped) for rows that should be counted
// and dropped rather than dead-lettered.
func NormalizeRawListing(raw *data.RawListing) (*CanonicalListing, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty row", ErrSkipListing)
	}

	addr, err := CanonicalizeAddress(raw.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSkipListing, err.Error())
	}

	listing := &CanonicalListing{
		Address:        addr,
		DedupeKey:      addr.DedupeKey(),
		Status:         strings.TrimSpace(raw.Status),
		SaleDate:       ParseSaleDate(raw.SaleDateText),
		OpeningBid:     ParseMoney(raw.OpeningBidText),
		EstimatedValue: ParseMoney(raw.EstimatedValueText),
		JudgmentAmount: ParseMoney(raw.JudgmentAmountText),
		Plaintiff:      strings.TrimSpace(raw.Plaintiff),
		Defendant:      strings.TrimSpace(raw.Defendant),
		OwnerPhone:     strings.TrimSpace(raw.OwnerPhone),
		Beds:           ParseIntField(raw.BedsText),
		Baths:          ParseFloatField(raw.BathsText),
		LotSizeSqft:    ParseIntField(raw.LotSqftText),
		PropertyType:   strings.TrimSpace(raw.PropertyType),
		Occupancy:      strings.TrimSpace(raw.Occupancy),
		Notes:          strings.TrimSpace(raw.Notes),
		Source: data.Source{
			Type:        raw.SourceType,
			Name:        raw.SourceName,
			URL:         raw.DetailURL,
			Reliability: data.ReliabilityFor(raw.SourceName),
		},
	}

	// a row with no price, no date and no status carries nothing to ingest
	if listing.OpeningBid == nil && listing.EstimatedValue == nil &&
		listing.SaleDate == nil && listing.Status == "" {
		return nil, fmt.Errorf("%w: no price, date or status", ErrSkipListing)
	}

	if listing.Plaintiff == "" && listing.Defendant == "" && raw.CaseTitle != "" {
		listing.Plaintiff, listing.Defendant = SplitCaseTitle(raw.CaseTitle)
	}

	listing.Stage = InferStage(raw.StageHint, raw.Status)
	listing.EquityPct = data.EquityPct(listing.EstimatedValue, listing.OpeningBid)
	listing.HeuristicBand = HeuristicBand(listing.EquityPct)

	return listing, nil
}
