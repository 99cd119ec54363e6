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

	"github.com/foreclosurewatch/fwdata/library"
)

// setSearchAlerts toggles alert delivery for each saved search ID given. The
// search itself is kept; muting affects exactly the named searches.
func setSearchAlerts(args []string, enabled bool) {
	ctx := context.Background()

	myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to library")
	}
	defer myLibrary.Close()

	for _, id := range args {
		search, err := myLibrary.SavedSearchFromID(ctx, id)
		if err != nil {
			log.Fatal().Err(err).Str("ID", id).Msg("could not get saved search for ID")
		}

		if err := myLibrary.SetSearchAlerts(ctx, search.ID, enabled); err != nil {
			log.Fatal().Err(err).Msg("could not update saved search")
		}

		log.Info().Str("ID", id).Bool("AlertsEnabled", enabled).Msg("saved search updated")
	}
}

// muteCmd represents the mute command
var muteCmd = &cobra.Command{
	Use:   "mute <search-id>",
	Short: "Stop alert delivery for saved searches",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setSearchAlerts(args, false)
	},
}

// unmuteCmd represents the unmute command
var unmuteCmd = &cobra.Command{
	Use:   "unmute <search-id>",
	Short: "Resume alert delivery for saved searches",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setSearchAlerts(args, true)
	},
}

func init() {
	rootCmd.AddCommand(muteCmd)
	rootCmd.AddCommand(unmuteCmd)
}
