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

import "time"

type RiskBand string

const (
	BandLow      RiskBand = "Low"
	BandModerate RiskBand = "Moderate"
	BandHigh     RiskBand = "High"
	BandUnknown  RiskBand = "Unknown"
)

// ValidBand reports whether band is one of the four recognized values.
func ValidBand(band RiskBand) bool {
	switch band {
	case BandLow, BandModerate, BandHigh, BandUnknown:
		return true
	}
	return false
}

// RiskAnalysis is the output of the external risk-scoring service. It is
// kept separate from the heuristic band so the pre/post-enrichment contract
// stays observable.
type RiskAnalysis struct {
	Score      int       `json:"score" db:"risk_score"`
	Band       RiskBand  `json:"band" db:"risk_band"`
	Summary    string    `json:"summary" db:"risk_summary"`
	Rationale  string    `json:"rationale" db:"risk_rationale"`
	AnalyzedAt time.Time `json:"analyzed_at" db:"risk_analyzed_at"`
}
