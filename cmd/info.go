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
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/library"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the foreclosure database",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myLibrary, err := library.NewFromDB(ctx, viper.GetString("db.url"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not load library info")
		}
		defer myLibrary.Close()

		summary, err := myLibrary.Summary(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create library summary document")
		}
		summary += dataSourcesSection()

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		out, err := r.Render(summary)
		if err != nil {
			log.Fatal().Err(err).Msg("could not render summary document")
		}

		fmt.Print(out)
	},
}

// dataSourcesSection summarizes the registered adapters so the info page
// shows where listings come from alongside what the database holds.
func dataSourcesSection() string {
	builder := strings.Builder{}
	builder.WriteString("\n## Data Sources\n")

	for state := range adapter.Profiles {
		adapters := adapter.Default.ForState(state)
		for _, sourceAdapter := range adapters {
			builder.WriteString(fmt.Sprintf("- %s (`%s`, reliability %.2f)\n",
				sourceAdapter.Label(), sourceAdapter.ID(), data.ReliabilityFor(sourceAdapter.ID())))
		}
	}

	return builder.String()
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
