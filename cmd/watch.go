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
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/library"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Create a saved search",
	Long: `Saved searches are the buy-box filters fwdata evaluates after every
ingestion run. The wizard walks you through the filter criteria; matching
listings whose facts change in a meaningful way are delivered as alert
digests.

Also see: searches, unwatch, mute, unmute`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			confirmed bool

			searchName string
			userID     string
			county     string
			city       string
			zip        string
			maxPrice   string
			minEquity  string
			stages     []string
		)

		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to library")
		}
		defer myLibrary.Close()

		stageOptions := []huh.Option[string]{
			huh.NewOption("Pre-foreclosure", string(data.StagePreForeclosure)),
			huh.NewOption("Sheriff sale", string(data.StageSheriffSale)),
			huh.NewOption("Auction", string(data.StageAuction)),
			huh.NewOption("REO", string(data.StageREO)),
		}

		optionalNumber := func(text string) error {
			if text == "" {
				return nil
			}
			_, err := strconv.ParseFloat(text, 64)
			return err
		}

		// walk user through the buy-box criteria
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("What should the search be named?").
					Value(&searchName),
				huh.NewInput().
					Title("Which user owns the search? (UUID)").
					Value(&userID).
					Validate(func(id string) error {
						_, err := uuid.Parse(id)
						return err
					}),
			),

			huh.NewGroup(
				huh.NewInput().
					Title("County (blank for any):").
					Value(&county),
				huh.NewInput().
					Title("City (blank for any):").
					Value(&city),
				huh.NewInput().
					Title("ZIP code (blank for any):").
					Value(&zip),
				huh.NewMultiSelect[string]().
					Title("Which foreclosure stages? (none for all)").
					Options(stageOptions...).
					Value(&stages),
				huh.NewInput().
					Title("Maximum price (blank for none):").
					Value(&maxPrice).
					Validate(optionalNumber),
				huh.NewInput().
					Title("Minimum equity percent (blank for none):").
					Value(&minEquity).
					Validate(optionalNumber),
			),
		)

		if err := form.Run(); err != nil {
			log.Fatal().Err(err).Msg("failed to create wizard")
		}

		search := &data.SavedSearch{
			ID:            uuid.New(),
			UserID:        uuid.MustParse(userID),
			Name:          searchName,
			State:         "NJ",
			AlertsEnabled: true,
			Filter: data.SearchFilter{
				County: county,
				City:   city,
				Zip:    zip,
			},
		}

		for _, stage := range stages {
			search.Filter.Stages = append(search.Filter.Stages, data.Stage(stage))
		}
		if maxPrice != "" {
			price, _ := strconv.ParseFloat(maxPrice, 64)
			search.Filter.MaxPrice = &price
		}
		if minEquity != "" {
			equity, _ := strconv.ParseFloat(minEquity, 64)
			search.Filter.MinEquityPct = &equity
		}

		// Print search summary
		{
			var sb strings.Builder
			keyword := func(s string) string {
				return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
			}

			orAny := func(s string) string {
				if s == "" {
					return keyword("any")
				}
				return keyword(s)
			}

			stageList := "any"
			if len(stages) > 0 {
				stageList = strings.Join(stages, ", ")
			}

			fmt.Fprintf(&sb,
				"%s\n\nID: %s\nName: %s\nCounty: %s\nCity: %s\nZIP: %s\nStages: %s\nMax Price: %s\nMin Equity: %s\n",
				lipgloss.NewStyle().Bold(true).Render("NEW SAVED SEARCH"),
				keyword(search.ID.String()),
				keyword(search.Name),
				orAny(county),
				orAny(city),
				orAny(zip),
				keyword(stageList),
				orAny(maxPrice),
				orAny(minEquity),
			)

			fmt.Println(
				lipgloss.NewStyle().
					Width(60).
					BorderStyle(lipgloss.RoundedBorder()).
					BorderForeground(lipgloss.Color("63")).
					Padding(1, 2).
					Render(sb.String()),
			)
		}

		confirmForm := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Create saved search?").
					Value(&confirmed),
			),
		)

		if err := confirmForm.Run(); err != nil {
			log.Fatal().Err(err).Msg("failed to create wizard")
		}

		if confirmed {
			if err := myLibrary.SaveSearch(ctx, search); err != nil {
				log.Fatal().Err(err).Msg("failed saving search")
			}

			log.Info().Str("ID", search.ID.String()).Msg("saved search created")
		} else {
			log.Info().Msg("Not saving search")
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
