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
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/foreclosurewatch/fwdata/data"
)

// ActiveListings returns every property with an open foreclosure event,
// soonest sale first. Unscheduled sales sort last.
func (myLibrary *Library) ActiveListings(ctx context.Context) ([]*data.ActiveListing, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT `+prefixColumns("p", propertyColumns)+`, `+prefixColumns("e", eventColumns)+`
FROM properties p JOIN foreclosure_events e ON e.property_id = p.id
WHERE e.active='t'
ORDER BY e.sale_date ASC NULLS LAST, p.address_full ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectListings(rows)
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for idx, part := range parts {
		parts[idx] = alias + "." + strings.TrimSpace(part)
	}

	return strings.Join(parts, ", ")
}

// scanListing reads one joined properties+foreclosure_events row.
func scanListing(rows pgx.Rows) (*data.ActiveListing, error) {
	property := &data.Property{}
	event := &data.ForeclosureEvent{}

	var riskScore *int
	var riskBand, riskSummary, riskRationale *string
	var riskAnalyzedAt *time.Time

	err := rows.Scan(&property.ID, &property.DedupeKey, &property.Address.Full,
		&property.Address.Street, &property.Address.City, &property.Address.County,
		&property.Address.State, &property.Address.Zip, &property.Address.Lat,
		&property.Address.Lng, &property.Beds, &property.Baths, &property.LotSizeSqft,
		&property.PropertyType, &property.Occupancy, &property.EstimatedValue,
		&property.EquityAmount, &property.EquityPct, &property.PrevEquityPct, &property.HeuristicBand,
		&riskScore, &riskBand, &riskSummary, &riskRationale, &riskAnalyzedAt,
		&property.SourceType, &property.SourceName, &property.SourceURL,
		&property.SourceReliability, &property.Notes, &property.EnrichmentDirty,
		&property.IngestionTimestamp, &property.LastUpdated, &property.LastSeenAt,
		&event.ID, &event.PropertyID, &event.Stage, &event.Status, &event.SaleDate,
		&event.OpeningBid, &event.JudgmentAmount, &event.Plaintiff, &event.Defendant,
		&event.OwnerPhone, &event.Active, &event.PendingVerification, &event.OpenedAt,
		&event.ClosedAt)
	if err != nil {
		return nil, err
	}

	if riskScore != nil && riskBand != nil {
		property.Risk = &data.RiskAnalysis{
			Score: *riskScore,
			Band:  data.RiskBand(*riskBand),
		}
		if riskSummary != nil {
			property.Risk.Summary = *riskSummary
		}
		if riskRationale != nil {
			property.Risk.Rationale = *riskRationale
		}
		if riskAnalyzedAt != nil {
			property.Risk.AnalyzedAt = *riskAnalyzedAt
		}
	}

	return &data.ActiveListing{Property: property, Event: event}, nil
}

func collectListings(rows pgx.Rows) ([]*data.ActiveListing, error) {
	listings := make([]*data.ActiveListing, 0, 32)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}

	return listings, rows.Err()
}
