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
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/data"
)

// CivilView pulls sheriff-sale dockets from county CivilView portals. It is
// the highest-reliability scraped source (direct county feed).
type CivilView struct {
	baseURL      string
	listClient   *resty.Client
	detailClient *resty.Client
}

func NewCivilView() *CivilView {
	baseURL := viper.GetString("adapters.civilview.url")
	if baseURL == "" {
		baseURL = "https://salesweb.civilview.com"
	}

	return &CivilView{
		baseURL:      baseURL,
		listClient:   resty.New().SetTimeout(listTimeout),
		detailClient: resty.New().SetTimeout(detailTimeout),
	}
}

func (cv *CivilView) ID() string    { return "civilview" }
func (cv *CivilView) Label() string { return "CivilView County Sheriff Sales" }

func (cv *CivilView) SupportsState(code string) bool {
	return strings.EqualFold(code, "NJ")
}

// civilViewPage is one page of the sales table. Columns are discovered at
// parse time; county clerks reorder them without notice.
type civilViewPage struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Next    string     `json:"next"`
}

type civilViewDetail struct {
	OwnerPhone     string `json:"owner_phone"`
	Occupancy      string `json:"occupancy"`
	JudgmentAmount string `json:"judgment_amount"`
	PropertyType   string `json:"property_type"`
	Notes          string `json:"notes"`
}

// columnIndex maps normalized header names to their position. Aliases cover
// the header spellings seen across counties.
func columnIndex(columns []string) map[string]int {
	aliases := map[string]string{
		"address":          "address",
		"property address": "address",
		"status":           "status",
		"sale status":      "status",
		"sales date":       "sale_date",
		"sale date":        "sale_date",
		"upset amount":     "opening_bid",
		"approx upset":     "opening_bid",
		"opening bid":      "opening_bid",
		"approx judgment":  "judgment",
		"judgment amount":  "judgment",
		"case title":       "case_title",
		"case caption":     "case_title",
		"plaintiff":        "plaintiff",
		"defendant":        "defendant",
		"details":          "detail_url",
		"detail url":       "detail_url",
	}

	index := make(map[string]int, len(columns))
	for position, header := range columns {
		normalized := strings.ToLower(strings.TrimSpace(header))
		normalized = strings.NewReplacer(".", "", ":", "").Replace(normalized)
		if canonical, ok := aliases[normalized]; ok {
			index[canonical] = position
		}
	}

	return index
}

func cell(row []string, index map[string]int, column string) string {
	position, ok := index[column]
	if !ok || position >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[position])
}

// Search pages through the county sales table and enriches rows with
// detail-page data. Per-row failures are logged and skipped; a failure on
// the list page itself surfaces as an error with an empty batch.
func (cv *CivilView) Search(ctx context.Context, params SearchParams) ([]*data.RawListing, error) {
	logger := log.With().Str("Adapter", cv.ID()).Str("County", params.County).Logger()
	listings := make([]*data.RawListing, 0, 64)

	pageURL := fmt.Sprintf("%s/Sales/SalesSearch", cv.baseURL)
	pageNum := 0

	for pageURL != "" {
		if err := ctx.Err(); err != nil {
			return listings, err
		}

		var page civilViewPage
		err := retryTransient(ctx, logger, func() error {
			resp, err := cv.listClient.R().
				SetContext(ctx).
				SetQueryParam("county", params.County).
				SetQueryParam("city", params.City).
				Get(pageURL)
			if err != nil {
				return fmt.Errorf("%w: %s", ErrTransient, err.Error())
			}
			if resp.StatusCode() >= 500 {
				return fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode())
			}
			if resp.StatusCode() >= 300 {
				return fmt.Errorf("list page returned status %d", resp.StatusCode())
			}
			return json.Unmarshal(resp.Body(), &page)
		})
		if err != nil {
			logger.Error().Err(err).Int("Page", pageNum).Msg("could not fetch sales page")
			return listings, err
		}

		index := columnIndex(page.Columns)
		if _, ok := index["address"]; !ok {
			logger.Warn().Strs("Columns", page.Columns).Msg("no address column discovered; emitting rows with empty addresses")
		}

		for rowNum, row := range page.Rows {
			listing, err := cv.parseRow(row, index)
			if err != nil {
				logger.Warn().Err(err).Int("Page", pageNum).Int("Row", rowNum).Msg("skipping unparseable row")
				continue
			}
			listing.Debug["page"] = fmt.Sprintf("%d", pageNum)
			listing.Debug["row"] = fmt.Sprintf("%d", rowNum)
			listings = append(listings, listing)
		}

		pageURL = page.Next
		pageNum++
	}

	cv.enrichDetails(ctx, logger, listings)

	return listings, nil
}

func (cv *CivilView) parseRow(row []string, index map[string]int) (*data.RawListing, error) {
	if len(row) == 0 {
		return nil, fmt.Errorf("empty row")
	}

	listing := &data.RawListing{
		Address:            cell(row, index, "address"),
		Status:             cell(row, index, "status"),
		StageHint:          "Sheriff Sale",
		SaleDateText:       cell(row, index, "sale_date"),
		OpeningBidText:     cell(row, index, "opening_bid"),
		JudgmentAmountText: cell(row, index, "judgment"),
		CaseTitle:          cell(row, index, "case_title"),
		Plaintiff:          cell(row, index, "plaintiff"),
		Defendant:          cell(row, index, "defendant"),
		DetailURL:          cell(row, index, "detail_url"),
		SourceType:         data.SourceScraper,
		SourceName:         cv.ID(),
		Debug:              make(map[string]string, 2),
	}

	return listing, nil
}

// enrichDetails fetches detail pages in bounded-concurrency batches with an
// inter-batch delay, isolating per-item failures. A dead detail page leaves
// its listing intact with only the list-page fields.
func (cv *CivilView) enrichDetails(ctx context.Context, logger zerolog.Logger, listings []*data.RawListing) {
	pending := make([]*data.RawListing, 0, len(listings))
	for _, listing := range listings {
		if listing.DetailURL != "" {
			pending = append(pending, listing)
		}
	}

	for start := 0; start < len(pending); start += detailBatchSize {
		if ctx.Err() != nil {
			return
		}

		end := start + detailBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		var wg sync.WaitGroup
		for _, listing := range pending[start:end] {
			wg.Add(1)
			go func(listing *data.RawListing) {
				defer wg.Done()
				cv.fetchDetail(ctx, logger, listing)
			}(listing)
		}
		wg.Wait()

		if end < len(pending) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(detailBatchDelay):
			}
		}
	}
}

func (cv *CivilView) fetchDetail(ctx context.Context, logger zerolog.Logger, listing *data.RawListing) {
	var detail civilViewDetail

	resp, err := cv.detailClient.R().
		SetContext(ctx).
		SetResult(&detail).
		Get(listing.DetailURL)
	if err != nil {
		logger.Warn().Err(err).Str("DetailURL", listing.DetailURL).Msg("detail fetch failed")
		return
	}
	if resp.StatusCode() >= 300 {
		logger.Warn().Int("StatusCode", resp.StatusCode()).Str("DetailURL", listing.DetailURL).
			Msg("detail fetch returned an invalid status code")
		return
	}

	listing.OwnerPhone = detail.OwnerPhone
	listing.Occupancy = detail.Occupancy
	listing.PropertyType = detail.PropertyType
	listing.Notes = detail.Notes
	if listing.JudgmentAmountText == "" {
		listing.JudgmentAmountText = detail.JudgmentAmount
	}
}
