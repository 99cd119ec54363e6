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

type SourceType string

const (
	SourceScraper SourceType = "Scraper"
	SourceManual  SourceType = "Manual"
	SourceAPI     SourceType = "API"
)

// Source identifies where a raw listing came from and how much the merge
// logic should trust it relative to other sources.
type Source struct {
	Type        SourceType `json:"type"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Reliability float64    `json:"reliability"`
}

// DefaultReliability is used for adapters that have no entry in the
// reliability table.
const DefaultReliability = 0.50

// reliabilityTable is per-adapter configuration; a direct county feed is
// trusted more than an aggregator, and operator-reviewed uploads most of all.
var reliabilityTable = map[string]float64{
	"civilview":          0.85,
	"auctionhub":         0.70,
	"manual-import":      0.95,
	"public-records-api": 0.90,
}

// ReliabilityFor returns the configured reliability for an adapter id.
func ReliabilityFor(adapterID string) float64 {
	if reliability, ok := reliabilityTable[adapterID]; ok {
		return reliability
	}
	return DefaultReliability
}
