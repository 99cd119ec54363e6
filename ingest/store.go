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

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/foreclosurewatch/fwdata/data"
)

// Store is the slice of the library the ingestion pipeline writes through.
// Absence is signaled with library.ErrNotFound.
type Store interface {
	PropertyByDedupeKey(ctx context.Context, key string) (*data.Property, error)
	SaveProperty(ctx context.Context, property *data.Property) error
	UpdateProperty(ctx context.Context, property *data.Property) error

	ActiveEvent(ctx context.Context, propertyID uuid.UUID) (*data.ForeclosureEvent, error)
	OpenEvent(ctx context.Context, event *data.ForeclosureEvent) error
	UpdateEvent(ctx context.Context, event *data.ForeclosureEvent) error

	AppendTimeline(ctx context.Context, entry *data.TimelineEntry) (bool, error)

	DeadLetter(ctx context.Context, adapterID, dedupeKey, reason string, raw *data.RawListing) error
	RecordVolume(ctx context.Context, adapterID string, rowCount int) error
	AverageVolume(ctx context.Context, adapterID string, window time.Duration) (float64, bool, error)
}
