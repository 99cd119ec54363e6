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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/alert"
	"github.com/foreclosurewatch/fwdata/library"
)

// alertsCmd represents the alerts command
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Evaluate saved searches and deliver alert digests",
	Long: `The alerts sub-command evaluates every alert-enabled saved search
against listings that changed since the search last ran. Matches that pass
the significance gate are grouped into one digest per user and rendered to
the terminal; the external notification service delivers the same digests
by email.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		delivered, err := alert.NewEngine(myLibrary, alert.ConsoleNotifier{}).Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("alert evaluation failed")
		}

		log.Info().Int("Delivered", delivered).Msg("alert evaluation complete")
	},
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}
