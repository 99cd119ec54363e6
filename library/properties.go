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
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/normalize"
)

var (
	ErrNotFound  = errors.New("not found in library")
	ErrDuplicate = errors.New("dedupe key already exists")
)

const propertyColumns = `id, dedupe_key, address_full, address_street, address_city,
address_county, address_state, address_zip, lat, lng, beds, baths, lot_size_sqft,
property_type, occupancy, estimated_value, equity_amount, equity_pct, prev_equity_pct, heuristic_band,
risk_score, risk_band, risk_summary, risk_rationale, risk_analyzed_at,
source_type, source_name, source_url, source_reliability, notes, enrichment_dirty,
ingestion_timestamp, last_updated, last_seen_at`

func scanProperty(row pgx.Row) (*data.Property, error) {
	property := &data.Property{}

	var riskScore *int
	var riskBand, riskSummary, riskRationale *string
	var riskAnalyzedAt *time.Time

	err := row.Scan(&property.ID, &property.DedupeKey, &property.Address.Full,
		&property.Address.Street, &property.Address.City, &property.Address.County,
		&property.Address.State, &property.Address.Zip, &property.Address.Lat,
		&property.Address.Lng, &property.Beds, &property.Baths, &property.LotSizeSqft,
		&property.PropertyType, &property.Occupancy, &property.EstimatedValue,
		&property.EquityAmount, &property.EquityPct, &property.PrevEquityPct, &property.HeuristicBand,
		&riskScore, &riskBand, &riskSummary, &riskRationale, &riskAnalyzedAt,
		&property.SourceType, &property.SourceName, &property.SourceURL,
		&property.SourceReliability, &property.Notes, &property.EnrichmentDirty,
		&property.IngestionTimestamp, &property.LastUpdated, &property.LastSeenAt)
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

	return property, nil
}

// PropertyByID fetches a single property.
func (myLibrary *Library) PropertyByID(ctx context.Context, id string) (*data.Property, error) {
	row := myLibrary.Pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE id::text like $1 LIMIT 1`, id+"%")

	property, err := scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	return property, err
}

// PropertyByDedupeKey resolves a dedupe key to its property. An exact key
// match is tried first; when that misses, keys sharing the state|zip|number
// prefix are compared with the fuzzy street matcher so a one-character
// spelling drift between sources still lands on the same property.
func (myLibrary *Library) PropertyByDedupeKey(ctx context.Context, key string) (*data.Property, error) {
	row := myLibrary.Pool.QueryRow(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE dedupe_key=$1`, key)

	property, err := scanProperty(row)
	if err == nil {
		return property, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	prefix := normalize.KeyPrefix(key)

	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT dedupe_key FROM properties WHERE dedupe_key LIKE $1`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var candidate string
		if err := rows.Scan(&candidate); err != nil {
			return nil, err
		}

		if normalize.KeysFuzzyMatch(key, candidate) {
			log.Debug().Str("Key", key).Str("Matched", candidate).Msg("fuzzy dedupe key match")
			rows.Close()
			return myLibrary.PropertyByDedupeKey(ctx, candidate)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nil, ErrNotFound
}

// SaveProperty inserts a new property row. A concurrent insert of the same
// dedupe key surfaces as ErrDuplicate so the caller can re-fetch and merge.
func (myLibrary *Library) SaveProperty(ctx context.Context, property *data.Property) error {
	var riskScore *int
	var riskBand, riskSummary, riskRationale *string
	var riskAnalyzedAt *time.Time
	if property.Risk != nil {
		riskScore = &property.Risk.Score
		band := string(property.Risk.Band)
		riskBand = &band
		riskSummary = &property.Risk.Summary
		riskRationale = &property.Risk.Rationale
		riskAnalyzedAt = &property.Risk.AnalyzedAt
	}

	_, err := myLibrary.Pool.Exec(ctx, `INSERT INTO properties
("id", "dedupe_key", "address_full", "address_street", "address_city", "address_county",
 "address_state", "address_zip", "lat", "lng", "beds", "baths", "lot_size_sqft",
 "property_type", "occupancy", "estimated_value", "equity_amount", "equity_pct",
 "prev_equity_pct", "heuristic_band", "risk_score", "risk_band", "risk_summary",
 "risk_rationale", "risk_analyzed_at", "source_type", "source_name", "source_url",
 "source_reliability", "notes", "enrichment_dirty", "ingestion_timestamp",
 "last_updated", "last_seen_at")
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
 $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34);`,
		property.ID, property.DedupeKey, property.Address.Full, property.Address.Street,
		property.Address.City, property.Address.County, property.Address.State,
		property.Address.Zip, property.Address.Lat, property.Address.Lng, property.Beds,
		property.Baths, property.LotSizeSqft, property.PropertyType, property.Occupancy,
		property.EstimatedValue, property.EquityAmount, property.EquityPct,
		property.PrevEquityPct, property.HeuristicBand, riskScore, riskBand, riskSummary, riskRationale,
		riskAnalyzedAt, property.SourceType, property.SourceName, property.SourceURL,
		property.SourceReliability, property.Notes, property.EnrichmentDirty,
		property.IngestionTimestamp, property.LastUpdated, property.LastSeenAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}

	return err
}

// UpdateProperty writes the merged property state back by id.
func (myLibrary *Library) UpdateProperty(ctx context.Context, property *data.Property) error {
	var riskScore *int
	var riskBand, riskSummary, riskRationale *string
	var riskAnalyzedAt *time.Time
	if property.Risk != nil {
		riskScore = &property.Risk.Score
		band := string(property.Risk.Band)
		riskBand = &band
		riskSummary = &property.Risk.Summary
		riskRationale = &property.Risk.Rationale
		riskAnalyzedAt = &property.Risk.AnalyzedAt
	}

	_, err := myLibrary.Pool.Exec(ctx, `UPDATE properties SET
 address_full=$2, address_street=$3, address_city=$4, address_county=$5,
 address_state=$6, address_zip=$7, lat=$8, lng=$9, beds=$10, baths=$11,
 lot_size_sqft=$12, property_type=$13, occupancy=$14, estimated_value=$15,
 equity_amount=$16, equity_pct=$17, prev_equity_pct=$18, heuristic_band=$19,
 risk_score=$20, risk_band=$21, risk_summary=$22, risk_rationale=$23,
 risk_analyzed_at=$24, source_type=$25, source_name=$26, source_url=$27,
 source_reliability=$28, notes=$29, enrichment_dirty=$30, last_updated=$31,
 last_seen_at=$32
WHERE id=$1`,
		property.ID, property.Address.Full, property.Address.Street, property.Address.City,
		property.Address.County, property.Address.State, property.Address.Zip,
		property.Address.Lat, property.Address.Lng, property.Beds, property.Baths,
		property.LotSizeSqft, property.PropertyType, property.Occupancy,
		property.EstimatedValue, property.EquityAmount, property.EquityPct,
		property.PrevEquityPct, property.HeuristicBand, riskScore, riskBand, riskSummary, riskRationale,
		riskAnalyzedAt, property.SourceType, property.SourceName, property.SourceURL,
		property.SourceReliability, property.Notes, property.EnrichmentDirty,
		property.LastUpdated, property.LastSeenAt)

	return err
}

// EnrichmentQueue returns properties whose facts changed since their last
// risk analysis, oldest first.
func (myLibrary *Library) EnrichmentQueue(ctx context.Context, limit int) ([]*data.Property, error) {
	rows, err := myLibrary.Pool.Query(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE enrichment_dirty='t'
ORDER BY last_updated ASC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func collectProperties(rows pgx.Rows) ([]*data.Property, error) {
	properties := make([]*data.Property, 0, 32)
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, property)
	}

	return properties, rows.Err()
}
