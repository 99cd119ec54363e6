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

// RawListing is the unparsed payload an adapter produces for one source
// row. Every field is a string exactly as the source presented it; the
// normalization engine owns all interpretation.
type RawListing struct {
	Address            string `json:"address"`
	Status             string `json:"status"`
	StageHint          string `json:"stage_hint"`
	SaleDateText       string `json:"sale_date_text"`
	OpeningBidText     string `json:"opening_bid_text"`
	EstimatedValueText string `json:"estimated_value_text"`
	JudgmentAmountText string `json:"judgment_amount_text"`
	CaseTitle          string `json:"case_title"`
	Plaintiff          string `json:"plaintiff"`
	Defendant          string `json:"defendant"`
	OwnerPhone         string `json:"owner_phone"`
	Occupancy          string `json:"occupancy"`
	PropertyType       string `json:"property_type"`
	BedsText           string `json:"beds_text"`
	BathsText          string `json:"baths_text"`
	LotSqftText        string `json:"lot_sqft_text"`
	Notes              string `json:"notes"`
	DetailURL          string `json:"detail_url"`

	SourceType SourceType `json:"source_type"`
	SourceName string     `json:"source_name"`

	// Debug carries opaque per-source metadata (page number, row index,
	// upstream ids) for the dead-letter queue and troubleshooting.
	Debug map[string]string `json:"debug,omitempty"`
}
