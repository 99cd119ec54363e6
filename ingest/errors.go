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
package ingest

import "fmt"

// Machine-stable error reasons recorded on adapter summaries. Exit-code
// handling in the CLI matches on these strings.
const (
	ReasonCircuitOpen   = "circuit open"
	ReasonVolumeAnomaly = "volume anomaly"
	ReasonSchemaDrift   = "schema drift"
	ReasonTimeout       = "timeout"
	ReasonSearchFailed  = "search failed"
)

// AnomalyError means a batch yielded far fewer rows than the adapter's
// moving average. The batch is discarded rather than risk mass-flagging
// healthy listings as vanished.
type AnomalyError struct {
	AdapterID string
	Expected  float64
	Got       int
}

func (err *AnomalyError) Error() string {
	return fmt.Sprintf("%s yielded %d rows against a %.1f-row average", err.AdapterID, err.Got, err.Expected)
}

// DriftError means the source's shape changed underneath the adapter: too
// many rows are missing an address, or missing both a date and a status.
type DriftError struct {
	AdapterID string

	MissingAddressPct      float64
	MissingDateOrStatusPct float64
}

func (err *DriftError) Error() string {
	return fmt.Sprintf("%s schema drift: %.0f%% rows missing address, %.0f%% missing date and status",
		err.AdapterID, err.MissingAddressPct*100, err.MissingDateOrStatusPct*100)
}
