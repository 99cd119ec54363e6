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
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a description of the library in markdown
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	if _, err := builder.WriteString("# Foreclosure Watch\n"); err != nil {
		return "", err
	}

	if _, err := builder.WriteString("## Details\n\n"); err != nil {
		return "", err
	}

	// Database connection string
	if _, err := builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl)); err != nil {
		return "", err
	}

	// Number of tracked properties
	numProperties, err := myLibrary.NumProperties(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Properties Tracked: %d\n", numProperties)); err != nil {
		return "", err
	}

	// Open foreclosure cycles
	numActive, err := myLibrary.NumActiveEvents(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Active Foreclosures: %d\n", numActive)); err != nil {
		return "", err
	}

	// Open operator tasks
	tasks, err := myLibrary.OpenVerifications(ctx)
	if err != nil {
		return "", err
	}

	if _, err := builder.WriteString(p.Sprintf("  * Open Verification Tasks: %d\n\n", len(tasks))); err != nil {
		return "", err
	}

	// Last updated time
	lastUpdated, err := myLibrary.LastUpdated(ctx)
	if err != nil {
		return "", err
	}

	age := timeago.English.Format(lastUpdated)

	if lastUpdated.Equal(time.Time{}) {
		if _, err := builder.WriteString("Last Updated: Never\n\n"); err != nil {
			return "", err
		}
	} else {
		if _, err := builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n\n", age, lastUpdated.Local().Format("01/02/2006"))); err != nil {
			return "", err
		}
	}

	// Saved searches
	if _, err := builder.WriteString("## Saved Searches\n\n"); err != nil {
		return "", err
	}

	searches, err := myLibrary.SavedSearches(ctx, false)
	if err != nil {
		return "", err
	}

	for _, search := range searches {
		alerts := "alerts off"
		if search.AlertsEnabled {
			alerts = "alerts on"
		}

		lastRun := "never run"
		if search.LastRunAt != nil {
			lastRun = timeago.English.Format(*search.LastRunAt)
		}

		if _, err := builder.WriteString(p.Sprintf("  * %s (%s, %s, %s) [%s]\n", search.Name,
			search.State, alerts, lastRun, search.ID.String()[:6])); err != nil {
			return "", err
		}
	}

	return builder.String(), nil
}
