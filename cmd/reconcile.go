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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/library"
	"github.com/foreclosurewatch/fwdata/reconcile"
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Flag active sales that have vanished from their sources",
	Long: `The reconcile sub-command finds properties whose sheriff sale or
auction date has passed but which no source re-published during the most
recent ingestion run. Those listings are marked pending-verification and a
task is queued for a human to confirm the outcome; the sweep never guesses
whether a vanished listing sold or was adjourned.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		flagged, err := reconcile.NewJob(myLibrary).Run(ctx, time.Now())
		if err != nil {
			log.Fatal().Err(err).Msg("reconciliation sweep failed")
		}

		log.Info().Int("Flagged", flagged).Msg("reconciliation sweep complete")
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
