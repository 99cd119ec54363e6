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

// Package ingest runs source adapters, normalizes their rows, and applies
// the results to the property store under the safety policies: per-adapter
// deadlines, a schema-drift circuit breaker, a volume-anomaly yield check,
// and a dead-letter queue for rows that fail processing.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/normalize"
)

const (
	defaultAdapterDeadline = 120 * time.Second
	defaultYieldThreshold  = 0.10
	defaultDriftThreshold  = 0.20

	volumeWindow = 30 * 24 * time.Hour
)

// Orchestrator fans an ingestion run out across every adapter registered
// for a state. Adapters run in parallel and are isolated from each other;
// one misbehaving source never aborts the run.
type Orchestrator struct {
	store    Store
	registry *adapter.Registry
	pipeline *Pipeline
	breaker  *Breaker
}

func NewOrchestrator(store Store, registry *adapter.Registry, breaker *Breaker) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		pipeline: NewPipeline(store),
		breaker:  breaker,
	}
}

func adapterDeadline() time.Duration {
	if deadline := viper.GetDuration("ingest.adapter_deadline"); deadline > 0 {
		return deadline
	}
	return defaultAdapterDeadline
}

func yieldThreshold() float64 {
	if threshold := viper.GetFloat64("ingest.yield_threshold"); threshold > 0 {
		return threshold
	}
	return defaultYieldThreshold
}

func driftThreshold() float64 {
	if threshold := viper.GetFloat64("ingest.drift_threshold"); threshold > 0 {
		return threshold
	}
	return defaultDriftThreshold
}

// Run executes one ingestion pass for the state in params.
func (orchestrator *Orchestrator) Run(ctx context.Context, params adapter.SearchParams) *data.IngestionResult {
	result := &data.IngestionResult{StartedAt: time.Now()}

	adapters := orchestrator.registry.ForState(params.State)
	summaries := make([]*data.AdapterIngestionSummary, len(adapters))

	var wg sync.WaitGroup
	for idx, sourceAdapter := range adapters {
		wg.Add(1)
		go func(idx int, sourceAdapter adapter.Adapter) {
			defer wg.Done()
			summaries[idx] = orchestrator.runAdapter(ctx, sourceAdapter, params)
		}(idx, sourceAdapter)
	}
	wg.Wait()

	result.Adapters = summaries
	result.FinishedAt = time.Now()

	log.Info().Int("Adapters", len(adapters)).Int("Created", result.Created()).
		Int("Updated", result.Updated()).Msg("ingestion run finished")

	return result
}

func (orchestrator *Orchestrator) runAdapter(ctx context.Context, sourceAdapter adapter.Adapter, params adapter.SearchParams) *data.AdapterIngestionSummary {
	summary := &data.AdapterIngestionSummary{AdapterID: sourceAdapter.ID()}
	logger := log.With().Str("Adapter", sourceAdapter.ID()).Logger()

	if !orchestrator.breaker.Allow(sourceAdapter.ID()) {
		logger.Warn().Msg("skipping adapter: circuit open")
		summary.Error = ReasonCircuitOpen
		return summary
	}

	searchCtx, cancel := context.WithTimeout(ctx, adapterDeadline())
	defer cancel()

	raw, err := sourceAdapter.Search(searchCtx, params)
	if err != nil {
		logger.Warn().Err(err).Msg("search failed; retrying once")
		raw, err = sourceAdapter.Search(searchCtx, params)
	}
	if err != nil {
		orchestrator.breaker.Fail(sourceAdapter.ID())
		if errors.Is(err, context.DeadlineExceeded) {
			summary.Error = ReasonTimeout
		} else {
			summary.Error = ReasonSearchFailed
		}
		logger.Error().Err(err).Msg("adapter search failed")
		return summary
	}

	summary.RawCount = len(raw)

	if driftErr := checkDrift(sourceAdapter.ID(), raw); driftErr != nil {
		orchestrator.breaker.Trip(sourceAdapter.ID())
		summary.Error = ReasonSchemaDrift
		logger.Error().Err(driftErr).Msg("tripping circuit: schema drift")
		return summary
	}

	listings := make([]*normalize.CanonicalListing, 0, len(raw))
	failedRows := make([]*data.RawListing, 0)
	for _, row := range raw {
		listing, err := normalize.NormalizeRawListing(row)
		if err != nil {
			if errors.Is(err, normalize.ErrSkipListing) {
				summary.ItemsSkippedNormalization++
				continue
			}
			failedRows = append(failedRows, row)
			continue
		}
		listings = append(listings, listing)
	}
	summary.NormalizedCount = len(listings)

	if anomalyErr := orchestrator.checkYield(ctx, sourceAdapter.ID(), len(listings)); anomalyErr != nil {
		summary.Error = ReasonVolumeAnomaly
		logger.Error().Err(anomalyErr).Msg("discarding batch: volume anomaly")
		return summary
	}

	for _, row := range failedRows {
		summary.ItemsFailedProcessing++
		if err := orchestrator.store.DeadLetter(ctx, sourceAdapter.ID(), "", "normalization error", row); err != nil {
			logger.Error().Err(err).Msg("could not dead-letter row")
		}
	}

	for _, listing := range listings {
		created, err := orchestrator.pipeline.UpsertListing(ctx, listing, params.County)
		if err != nil {
			summary.ItemsFailedProcessing++
			logger.Warn().Err(err).Str("DedupeKey", listing.DedupeKey).Msg("upsert failed; dead-lettering")
			if dlqErr := orchestrator.store.DeadLetter(ctx, sourceAdapter.ID(), listing.DedupeKey, err.Error(), rawListingFor(listing)); dlqErr != nil {
				logger.Error().Err(dlqErr).Msg("could not dead-letter row")
			}
			continue
		}

		if created {
			summary.CreatedCount++
		} else {
			summary.UpdatedCount++
		}
	}

	if err := orchestrator.store.RecordVolume(ctx, sourceAdapter.ID(), len(listings)); err != nil {
		logger.Error().Err(err).Msg("could not record ingest volume")
	}

	orchestrator.breaker.Reset(sourceAdapter.ID())

	return summary
}

// checkDrift trips when the source's shape no longer matches expectations:
// too many rows missing an address, or missing both a sale date and status.
func checkDrift(adapterID string, raw []*data.RawListing) error {
	if len(raw) == 0 {
		return nil
	}

	missingAddress := 0
	missingDateOrStatus := 0
	for _, row := range raw {
		if row.Address == "" {
			missingAddress++
		}
		if row.SaleDateText == "" && row.Status == "" {
			missingDateOrStatus++
		}
	}

	addressPct := float64(missingAddress) / float64(len(raw))
	dateStatusPct := float64(missingDateOrStatus) / float64(len(raw))

	if addressPct > driftThreshold() || dateStatusPct > driftThreshold() {
		return &DriftError{
			AdapterID:              adapterID,
			MissingAddressPct:      addressPct,
			MissingDateOrStatusPct: dateStatusPct,
		}
	}

	return nil
}

// checkYield flags a batch far below the adapter's 30-day moving average.
// Such batches are discarded untouched; acting on them would mass-flag
// healthy listings as vanished.
func (orchestrator *Orchestrator) checkYield(ctx context.Context, adapterID string, accepted int) error {
	average, ok, err := orchestrator.store.AverageVolume(ctx, adapterID, volumeWindow)
	if err != nil {
		log.Error().Err(err).Str("Adapter", adapterID).Msg("could not read volume history; skipping yield check")
		return nil
	}
	if !ok || average <= 0 {
		return nil
	}

	if float64(accepted) < yieldThreshold()*average {
		return &AnomalyError{AdapterID: adapterID, Expected: average, Got: accepted}
	}

	return nil
}

// rawListingFor reconstructs a minimal raw view of a canonical listing for
// the dead-letter payload.
func rawListingFor(listing *normalize.CanonicalListing) *data.RawListing {
	return &data.RawListing{
		Address:    listing.Address.Full,
		Status:     listing.Status,
		SourceType: listing.Source.Type,
		SourceName: listing.Source.Name,
		DetailURL:  listing.Source.URL,
	}
}
