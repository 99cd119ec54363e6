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

// AdapterIngestionSummary aggregates the outcome of one adapter's batch
// within an ingestion run.
type AdapterIngestionSummary struct {
	AdapterID string `json:"adapter_id"`

	RawCount        int `json:"raw_count"`
	NormalizedCount int `json:"normalized_count"`
	CreatedCount    int `json:"created_count"`
	UpdatedCount    int `json:"updated_count"`

	ItemsSkippedNormalization int `json:"items_skipped_normalization"`
	ItemsFailedProcessing     int `json:"items_failed_processing"`

	// Error is empty on success; otherwise a short machine-stable reason
	// ("timeout", "circuit open", "volume anomaly", "schema drift", ...).
	Error string `json:"error,omitempty"`
}

// IngestionResult is the overall outcome of one orchestrator run.
type IngestionResult struct {
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	Adapters   []*AdapterIngestionSummary `json:"adapters"`
}

// Created sums created properties across adapters.
func (result *IngestionResult) Created() int {
	total := 0
	for _, summary := range result.Adapters {
		total += summary.CreatedCount
	}
	return total
}

// Updated sums updated properties across adapters.
func (result *IngestionResult) Updated() int {
	total := 0
	for _, summary := range result.Adapters {
		total += summary.UpdatedCount
	}
	return total
}

// Failed reports whether every adapter ended with the given error reason.
func (result *IngestionResult) AllFailedWith(reason string) bool {
	if len(result.Adapters) == 0 {
		return false
	}
	for _, summary := range result.Adapters {
		if summary.Error != reason {
			return false
		}
	}
	return true
}
