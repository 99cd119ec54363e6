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

// unwatchCmd represents the unwatch command
var unwatchCmd = &cobra.Command{
	Use:   "unwatch <search-id>",
	Short: "Delete saved searches",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
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

			if err := myLibrary.DeleteSearch(ctx, search.ID); err != nil {
				log.Fatal().Err(err).Msg("could not delete saved search")
			}

			log.Info().Str("ID", id).Str("Name", search.Name).Msg("saved search deleted")
		}
	},
}

func init() {
	rootCmd.AddCommand(unwatchCmd)
}
