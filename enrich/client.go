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

// Package enrich scores listings against the external risk service. The
// client owns the request budget and all failure handling; a dead or
// misbehaving service degrades listings to their heuristic band instead of
// blocking ingestion.
package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/foreclosurewatch/fwdata/data"
)

const (
	requestTimeout = 30 * time.Second

	// deep negative equity is auto-rejected without spending a request
	autoRejectEquityPct = -20.0

	unavailableSummary = "unavailable"
)

// Scorer produces a risk analysis for one listing.
type Scorer interface {
	Analyze(ctx context.Context, request *Request) (*data.RiskAnalysis, error)
}

// Request is the trimmed listing view sent to the risk service. Only fields
// that influence scoring are included.
type Request struct {
	Address        string     `json:"address"`
	Stage          data.Stage `json:"stage"`
	Status         string     `json:"status"`
	SaleDate       *time.Time `json:"sale_date,omitempty"`
	OpeningBid     *float64   `json:"opening_bid,omitempty"`
	EstimatedValue *float64   `json:"estimated_value,omitempty"`
	JudgmentAmount *float64   `json:"judgment_amount,omitempty"`
	EquityPct      *float64   `json:"equity_pct,omitempty"`
	Occupancy      string     `json:"occupancy,omitempty"`
	PropertyType   string     `json:"property_type,omitempty"`
	Beds           *int       `json:"beds,omitempty"`
	Baths          *float64   `json:"baths,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// BuildRequest assembles the scoring request from a property and its active
// event. Event may be nil for properties between foreclosure cycles.
func BuildRequest(property *data.Property, event *data.ForeclosureEvent) *Request {
	request := &Request{
		Address:        property.Address.Full,
		Stage:          data.StageUnknown,
		EstimatedValue: property.EstimatedValue,
		EquityPct:      property.EquityPct,
		Occupancy:      property.Occupancy,
		PropertyType:   property.PropertyType,
		Beds:           property.Beds,
		Baths:          property.Baths,
		Notes:          property.Notes,
	}

	if event != nil {
		request.Stage = event.Stage
		request.Status = event.Status
		request.SaleDate = event.SaleDate
		request.OpeningBid = event.OpeningBid
		request.JudgmentAmount = event.JudgmentAmount
	}

	return request
}

// Client wraps a scorer with the request budget, the auto-reject
// short-circuit, structural validation, and the degraded fallback.
type Client struct {
	scorer  Scorer
	limiter *rate.Limiter
}

// NewClient builds a client around the given scorer. The request budget
// defaults to 10 requests per minute (riskservice.rate_limit).
func NewClient(scorer Scorer) *Client {
	perMinute := viper.GetFloat64("riskservice.rate_limit")
	if perMinute <= 0 {
		perMinute = 10
	}

	return &Client{
		scorer:  scorer,
		limiter: rate.NewLimiter(rate.Limit(perMinute/60.0), 1),
	}
}

// Enrich scores one listing. The returned analysis is always usable: on any
// scorer failure or malformed response it degrades to the property's
// heuristic band with the summary "unavailable", and the error explains why.
func (client *Client) Enrich(ctx context.Context, listing *data.ActiveListing) (*data.RiskAnalysis, error) {
	property := listing.Property

	if property.EquityPct != nil && *property.EquityPct < autoRejectEquityPct {
		return &data.RiskAnalysis{
			Score:      0,
			Band:       data.BandHigh,
			Summary:    "auto-rejected: deep negative equity",
			Rationale:  fmt.Sprintf("equity %.1f%% is below the %.0f%% floor", *property.EquityPct, autoRejectEquityPct),
			AnalyzedAt: time.Now(),
		}, nil
	}

	if err := client.limiter.Wait(ctx); err != nil {
		return client.fallback(property), err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	analysis, err := client.scorer.Analyze(reqCtx, BuildRequest(property, listing.Event))
	if err != nil {
		log.Warn().Err(err).Str("DedupeKey", property.DedupeKey).Msg("risk service call failed")
		return client.fallback(property), err
	}

	if err := validate(analysis); err != nil {
		log.Warn().Err(err).Str("DedupeKey", property.DedupeKey).Msg("risk service returned a malformed analysis")
		return client.fallback(property), err
	}

	analysis.AnalyzedAt = time.Now()

	return analysis, nil
}

// fallback keeps the heuristic band visible when analysis is unavailable.
func (client *Client) fallback(property *data.Property) *data.RiskAnalysis {
	band := property.HeuristicBand
	if !data.ValidBand(band) || band == "" {
		band = data.BandUnknown
	}

	return &data.RiskAnalysis{
		Score:      0,
		Band:       band,
		Summary:    unavailableSummary,
		AnalyzedAt: time.Now(),
	}
}

func validate(analysis *data.RiskAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("empty analysis")
	}
	if analysis.Score < 0 || analysis.Score > 100 {
		return fmt.Errorf("score %d out of range", analysis.Score)
	}
	if !data.ValidBand(analysis.Band) {
		return fmt.Errorf("unrecognized band %q", analysis.Band)
	}
	if analysis.Summary == "" {
		return fmt.Errorf("missing summary")
	}
	if analysis.Rationale == "" {
		return fmt.Errorf("missing rationale")
	}

	return nil
}

// HTTPScorer calls the hosted risk-scoring endpoint.
type HTTPScorer struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

func NewHTTPScorer() *HTTPScorer {
	return &HTTPScorer{
		baseURL: viper.GetString("riskservice.url"),
		apiKey:  viper.GetString("riskservice.apikey"),
		client:  resty.New(),
	}
}

func (scorer *HTTPScorer) Analyze(ctx context.Context, request *Request) (*data.RiskAnalysis, error) {
	analysis := &data.RiskAnalysis{}

	resp, err := scorer.client.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", scorer.apiKey).
		SetBody(request).
		SetResult(analysis).
		Post(fmt.Sprintf("%s/v1/analyze", scorer.baseURL))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("risk service returned status %d", resp.StatusCode())
	}

	return analysis, nil
}
