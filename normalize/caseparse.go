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
package normalize

import (
	"regexp"
	"strings"
)

// caseSeparator matches "v.", "vs", "vs." or "versus" as a standalone word,
// case-insensitive.
var caseSeparator = regexp.MustCompile(`(?i)\s+(?:v\.|vs\.?|versus)\s+`)

// SplitCaseTitle splits "PLAINTIFF v. DEFENDANT" into its parties. When no
// separator matches, the whole title is the defendant; county dockets list
// the property owner there.
func SplitCaseTitle(title string) (plaintiff, defendant string) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", ""
	}

	parts := caseSeparator.Split(trimmed, 2)
	if len(parts) != 2 {
		return "", trimmed
	}

	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}
