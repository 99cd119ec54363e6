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
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
)

var adaptersState string

// adaptersCmd represents the adapters command
var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the source adapters registered for a state",
	Run: func(cmd *cobra.Command, args []string) {
		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(80),
		)

		builder := strings.Builder{}
		builder.WriteString(fmt.Sprintf("# Source Adapters (%s)\n", strings.ToUpper(adaptersState)))

		adapters := adapter.Default.ForState(adaptersState)
		if len(adapters) == 0 {
			builder.WriteString("\nNo adapters are registered for this state.\n")
		}

		for _, sourceAdapter := range adapters {
			builder.WriteString(fmt.Sprintf("\n## %s\n", sourceAdapter.Label()))
			builder.WriteString(fmt.Sprintf("- ID: `%s`\n", sourceAdapter.ID()))
			builder.WriteString(fmt.Sprintf("- Reliability: %.2f\n", data.ReliabilityFor(sourceAdapter.ID())))
		}

		if profile, ok := adapter.Profiles[strings.ToUpper(adaptersState)]; ok {
			builder.WriteString("\n## State Profile\n")
			builder.WriteString(fmt.Sprintf("- Minimum viable equity: %.0f%%\n", profile.MinViableEquityPct))
			builder.WriteString(fmt.Sprintf("- Urgency window: %d days\n", int(profile.UrgencyWindow.Hours()/24)))
		}

		out, err := r.Render(builder.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render adapter document")
		}

		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)

	adaptersCmd.Flags().StringVar(&adaptersState, "state", "NJ", "2-letter state code")
}
