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
	"strconv"
	"strings"
)

// ParseMoney converts source money text ("$123,456.00", "1,200", "450000",
// "$ 120,000.50 ") to a dollar amount. Placeholder values ("", "N/A",
// "TBD") and anything unparseable return nil.
func ParseMoney(text string) *float64 {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	switch strings.ToLower(trimmed) {
	case "n/a", "na", "tbd", "unknown", "-", "--":
		return nil
	}

	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ', '\t':
			return -1
		}
		return r
	}, trimmed)

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}

	return &amount
}

// ParseIntField parses optional numeric attribute text (beds, lot sqft).
func ParseIntField(text string) *int {
	amount := ParseMoney(text)
	if amount == nil {
		return nil
	}

	value := int(*amount)
	return &value
}

// ParseFloatField parses optional fractional attribute text (baths).
func ParseFloatField(text string) *float64 {
	return ParseMoney(text)
}
