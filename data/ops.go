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

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// DeadLetter is a raw listing that failed processing after normalization
// succeeded. The original payload is preserved verbatim for replay.
type DeadLetter struct {
	ID        int64           `json:"id" db:"id"`
	AdapterID string          `json:"adapter_id" db:"adapter_id"`
	DedupeKey string          `json:"dedupe_key" db:"dedupe_key"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Reason    string          `json:"reason" db:"reason"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// VerificationTask asks an operator to establish ground truth the pipeline
// refuses to guess at, such as whether a vanished listing sold or adjourned.
type VerificationTask struct {
	ID         int64      `json:"id" db:"id"`
	PropertyID uuid.UUID  `json:"property_id" db:"property_id"`
	Kind       string     `json:"kind" db:"kind"`
	Detail     string     `json:"detail" db:"detail"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at" db:"resolved_at"`
}

// IngestVolume is one adapter run's accepted-row count, kept for the
// moving-average yield check.
type IngestVolume struct {
	AdapterID string    `json:"adapter_id" db:"adapter_id"`
	RunAt     time.Time `json:"run_at" db:"run_at"`
	RowCount  int       `json:"row_count" db:"row_count"`
}
