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
package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/enrich"
	"github.com/foreclosurewatch/fwdata/healthcheck"
	"github.com/foreclosurewatch/fwdata/ingest"
	"github.com/foreclosurewatch/fwdata/library"
	"github.com/foreclosurewatch/fwdata/reconcile"
)

// exit codes for schedulers wrapping the pipeline
const (
	exitOK           = 0
	exitConfig       = 2
	exitAllCircuit   = 3
	exitAllAnomalous = 4
	exitOtherFailure = 1
)

const enrichWorkerBatch = 100

var runImportFile string

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [saved-search-id...]",
	Short: "Run the ingestion pipeline",
	Long: `The run sub-command fetches listings from every registered source
adapter, normalizes and merges them into the property database, scores any
properties whose facts changed, and sweeps for listings that vanished from
their source. If saved-search IDs are provided, each search's filter scopes
the fetch; otherwise a full state sweep is performed.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runStartedAt := time.Now()

		dbURL := viper.GetString("db.url")
		if dbURL == "" {
			log.Error().Msg("no database connection string configured; run `fwdata init` or set db.url")
			os.Exit(exitConfig)
		}

		myLibrary, err := library.NewFromDB(ctx, dbURL)
		if err != nil {
			log.Error().Err(err).Msg("could not connect to library")
			os.Exit(exitConfig)
		}
		defer myLibrary.Close()

		searchParams, err := paramsForRun(ctx, myLibrary, args)
		if err != nil {
			log.Error().Err(err).Msg("could not resolve saved searches")
			os.Exit(exitOtherFailure)
		}

		orchestrator := ingest.NewOrchestrator(myLibrary, adapter.Default,
			ingest.NewBreaker(viper.GetDuration("circuit.cooldown")))

		exitCode := exitOK
		for _, params := range searchParams {
			result := orchestrator.Run(ctx, params)
			if code := exitCodeFor(result); code != exitOK {
				exitCode = code
			}
		}

		if exitCode == exitOK {
			enrichDirty(ctx, myLibrary)

			flagged, err := reconcile.NewJob(myLibrary).Run(ctx, runStartedAt)
			if err != nil {
				log.Error().Err(err).Msg("reconciliation sweep failed")
				exitCode = exitOtherFailure
			} else {
				log.Info().Int("Flagged", flagged).Msg("reconciliation sweep complete")
			}
		}

		notifyHealthcheck(exitCode)

		os.Exit(exitCode)
	},
}

// paramsForRun maps saved-search IDs to adapter search params; with no args
// a single full-state sweep is returned.
func paramsForRun(ctx context.Context, myLibrary *library.Library, args []string) ([]adapter.SearchParams, error) {
	if len(args) == 0 {
		return []adapter.SearchParams{{State: "NJ", FilePath: runImportFile}}, nil
	}

	params := make([]adapter.SearchParams, 0, len(args))
	for _, searchID := range args {
		search, err := myLibrary.SavedSearchFromID(ctx, searchID)
		if err != nil {
			return nil, err
		}

		params = append(params, adapter.SearchParams{
			State:    search.State,
			County:   search.Filter.County,
			City:     search.Filter.EffectiveCity(),
			Zip:      search.Filter.Zip,
			MaxPrice: search.Filter.EffectiveMaxPrice(),
			Stages:   search.Filter.Stages,
			FilePath: runImportFile,
		})
	}

	return params, nil
}

func exitCodeFor(result *data.IngestionResult) int {
	switch {
	case result.AllFailedWith(ingest.ReasonCircuitOpen):
		return exitAllCircuit
	case result.AllFailedWith(ingest.ReasonVolumeAnomaly):
		return exitAllAnomalous
	}

	for _, summary := range result.Adapters {
		if summary.Error != "" {
			return exitOtherFailure
		}
	}

	return exitOK
}

// enrichDirty drains the enrichment queue. Scoring failures degrade to the
// heuristic band and are retried on the next run.
func enrichDirty(ctx context.Context, myLibrary *library.Library) {
	client := enrich.NewClient(enrich.NewHTTPScorer())

	for {
		queue, err := myLibrary.EnrichmentQueue(ctx, enrichWorkerBatch)
		if err != nil {
			log.Error().Err(err).Msg("could not read enrichment queue")
			return
		}
		if len(queue) == 0 {
			return
		}

		scored := 0
		for _, property := range queue {
			event, err := myLibrary.ActiveEvent(ctx, property.ID)
			if err != nil && !errors.Is(err, library.ErrNotFound) {
				log.Error().Err(err).Str("DedupeKey", property.DedupeKey).Msg("could not load active event")
				continue
			}

			analysis, enrichErr := client.Enrich(ctx, &data.ActiveListing{Property: property, Event: event})
			property.Risk = analysis
			property.EnrichmentDirty = enrichErr != nil

			if err := myLibrary.UpdateProperty(ctx, property); err != nil {
				log.Error().Err(err).Str("DedupeKey", property.DedupeKey).Msg("could not store risk analysis")
			}

			if enrichErr != nil {
				log.Warn().Err(enrichErr).Str("DedupeKey", property.DedupeKey).Msg("risk analysis degraded to heuristic band")
			} else {
				scored++
			}
		}

		// a partial batch means the queue is drained; a batch with no
		// successes means the scorer is down and retrying is pointless
		if len(queue) < enrichWorkerBatch || scored == 0 {
			return
		}
	}
}

// notifyHealthcheck pings the dead-man switch when one is configured.
func notifyHealthcheck(exitCode int) {
	checkID := viper.GetString("healthchecks.checkid")
	if checkID == "" {
		return
	}

	var err error
	if exitCode == exitOK {
		err = healthcheck.Ping(checkID)
	} else {
		err = healthcheck.PingFailure(checkID)
	}

	if err != nil {
		log.Warn().Err(err).Msg("could not ping healthchecks.io")
	}
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runImportFile, "file", "", "CSV file for the manual-import adapter")
}
