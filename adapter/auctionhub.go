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
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/data"
)

// AuctionHub pulls listings from a private auction aggregator's JSON API.
// Aggregators re-syndicate county data with a lag, so the reliability table
// ranks this source below the direct county feed.
type AuctionHub struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

func NewAuctionHub() *AuctionHub {
	baseURL := viper.GetString("adapters.auctionhub.url")
	if baseURL == "" {
		baseURL = "https://api.auctionhub.example.com"
	}

	return &AuctionHub{
		baseURL: baseURL,
		apiKey:  viper.GetString("adapters.auctionhub.apikey"),
		client:  resty.New().SetTimeout(listTimeout),
	}
}

func (hub *AuctionHub) ID() string    { return "auctionhub" }
func (hub *AuctionHub) Label() string { return "AuctionHub Aggregator" }

func (hub *AuctionHub) SupportsState(code string) bool {
	return strings.EqualFold(code, "NJ")
}

type auctionHubListing struct {
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	Status         string `json:"status"`
	AuctionType    string `json:"auction_type"`
	AuctionDate    string `json:"auction_date"`
	StartingBid    string `json:"starting_bid"`
	EstimatedValue string `json:"estimated_value"`
	CaseTitle      string `json:"case_title"`
	PropertyType   string `json:"property_type"`
	Occupancy      string `json:"occupancy"`
	Beds           string `json:"beds"`
	Baths          string `json:"baths"`
	LotSqft        string `json:"lot_sqft"`
	ListingURL     string `json:"listing_url"`
	ListingID      string `json:"listing_id"`
}

type auctionHubPage struct {
	Listings []auctionHubListing `json:"listings"`
	NextPage int                 `json:"next_page"`
	Total    int                 `json:"total"`
}

// Search pages through the aggregator's listing endpoint.
func (hub *AuctionHub) Search(ctx context.Context, params SearchParams) ([]*data.RawListing, error) {
	logger := log.With().Str("Adapter", hub.ID()).Logger()
	listings := make([]*data.RawListing, 0, 64)

	page := 1
	for page > 0 {
		if err := ctx.Err(); err != nil {
			return listings, err
		}

		var body auctionHubPage
		err := retryTransient(ctx, logger, func() error {
			resp, err := hub.client.R().
				SetContext(ctx).
				SetHeader("X-Api-Key", hub.apiKey).
				SetQueryParam("state", strings.ToUpper(params.State)).
				SetQueryParam("county", params.County).
				SetQueryParam("page", strconv.Itoa(page)).
				SetResult(&body).
				Get(fmt.Sprintf("%s/v2/listings", hub.baseURL))
			if err != nil {
				return fmt.Errorf("%w: %s", ErrTransient, err.Error())
			}
			if resp.StatusCode() == 429 {
				return fmt.Errorf("rate limited by aggregator (status 429)")
			}
			if resp.StatusCode() >= 500 {
				return fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode())
			}
			if resp.StatusCode() >= 300 {
				return fmt.Errorf("listing endpoint returned status %d", resp.StatusCode())
			}
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Int("Page", page).Msg("could not fetch aggregator page")
			return listings, err
		}

		for _, item := range body.Listings {
			listings = append(listings, hub.convert(item))
		}

		page = body.NextPage
	}

	logger.Info().Int("Count", len(listings)).Msg("got listings from aggregator")

	return listings, nil
}

func (hub *AuctionHub) convert(item auctionHubListing) *data.RawListing {
	address := item.Address
	if item.City != "" || item.Zip != "" {
		state := item.State
		if state == "" {
			state = "NJ"
		}
		address = fmt.Sprintf("%s, %s, %s %s", item.Address, item.City, state, item.Zip)
	}

	return &data.RawListing{
		Address:            address,
		Status:             item.Status,
		StageHint:          item.AuctionType,
		SaleDateText:       item.AuctionDate,
		OpeningBidText:     item.StartingBid,
		EstimatedValueText: item.EstimatedValue,
		CaseTitle:          item.CaseTitle,
		PropertyType:       item.PropertyType,
		Occupancy:          item.Occupancy,
		BedsText:           item.Beds,
		BathsText:          item.Baths,
		LotSqftText:        item.LotSqft,
		DetailURL:          item.ListingURL,
		SourceType:         data.SourceAPI,
		SourceName:         hub.ID(),
		Debug:              map[string]string{"listing_id": item.ListingID},
	}
}
