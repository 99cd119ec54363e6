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
package alert

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleNotifier renders digests to the terminal. Email and SMS delivery
// are handled by an external notification service; the CLI prints exactly
// what that service would send.
type ConsoleNotifier struct{}

func (ConsoleNotifier) Deliver(_ context.Context, digest *Digest) error {
	var sb strings.Builder

	keyword := func(s string) string {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(s)
	}

	count := fmt.Sprintf("%d", len(digest.Alerts))
	if digest.Overflow {
		count += "+"
	}

	fmt.Fprintf(&sb, "%s\n\nUser: %s\nMatches: %s\n",
		lipgloss.NewStyle().Bold(true).Render("FORECLOSURE ALERT DIGEST"),
		keyword(digest.UserID.String()),
		keyword(count),
	)

	for _, matched := range digest.Alerts {
		fmt.Fprintf(&sb, "\n%s\n", lipgloss.NewStyle().Bold(true).Render(matched.Listing.Property.Address.Full))
		fmt.Fprintf(&sb, "Search: %s\n", keyword(matched.Search.Name))
		fmt.Fprintf(&sb, "Stage: %s\n", keyword(string(matched.Listing.Event.Stage)))
		if matched.Listing.Event.SaleDate != nil {
			fmt.Fprintf(&sb, "Sale Date: %s\n", keyword(matched.Listing.Event.SaleDate.Format("2006-01-02")))
		}
		fmt.Fprintf(&sb, "Why: %s\n", keyword(strings.Join(matched.Reasons, ", ")))
	}

	fmt.Println(
		lipgloss.NewStyle().
			Width(60).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2).
			Render(sb.String()),
	)

	return nil
}
