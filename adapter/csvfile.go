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
package adapter

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/foreclosurewatch/fwdata/data"
)

// CSVImport ingests operator-uploaded spreadsheets. Uploads are reviewed by
// a human before import, which is why this source tops the reliability
// table.
type CSVImport struct{}

func NewCSVImport() *CSVImport { return &CSVImport{} }

func (imp *CSVImport) ID() string    { return "manual-import" }
func (imp *CSVImport) Label() string { return "Manual CSV Import" }

func (imp *CSVImport) SupportsState(code string) bool {
	// uploads declare their own state per row; the adapter itself is not
	// state-bound
	return strings.EqualFold(code, "NJ")
}

// csvRow mirrors the upload template column headers.
type csvRow struct {
	Address        string `csv:"Address"`
	Status         string `csv:"Status"`
	Stage          string `csv:"Stage"`
	AuctionDate    string `csv:"Auction Date"`
	OpeningBid     string `csv:"Opening Bid"`
	EstimatedValue string `csv:"Est. Value"`
	CaseTitle      string `csv:"Case Title"`
	HomeOwner      string `csv:"Home Owner"`
	PhoneNumber    string `csv:"Phone Number"`
	Occupancy      string `csv:"Occupancy"`
	Notes          string `csv:"Notes / Flags"`
	SourceURL      string `csv:"Source URL"`
}

// Search reads the upload at params.FilePath. Rows that gocsv cannot map
// are reported by gocsv itself; structurally empty rows are skipped here.
func (imp *CSVImport) Search(_ context.Context, params SearchParams) ([]*data.RawListing, error) {
	if params.FilePath == "" {
		return nil, fmt.Errorf("manual-import requires a file path")
	}

	file, err := os.Open(params.FilePath)
	if err != nil {
		return nil, fmt.Errorf("could not open upload: %w", err)
	}
	defer file.Close()

	rows := make([]*csvRow, 0, 64)
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("could not parse upload: %w", err)
	}

	listings := make([]*data.RawListing, 0, len(rows))
	for rowNum, row := range rows {
		if strings.TrimSpace(row.Address) == "" {
			log.Warn().Int("Row", rowNum).Msg("skipping upload row without an address")
			continue
		}

		listings = append(listings, &data.RawListing{
			Address:            row.Address,
			Status:             row.Status,
			StageHint:          row.Stage,
			SaleDateText:       row.AuctionDate,
			OpeningBidText:     row.OpeningBid,
			EstimatedValueText: row.EstimatedValue,
			CaseTitle:          row.CaseTitle,
			Defendant:          row.HomeOwner,
			OwnerPhone:         row.PhoneNumber,
			Occupancy:          row.Occupancy,
			Notes:              row.Notes,
			DetailURL:          row.SourceURL,
			SourceType:         data.SourceManual,
			SourceName:         imp.ID(),
			Debug:              map[string]string{"row": fmt.Sprintf("%d", rowNum)},
		})
	}

	return listings, nil
}
