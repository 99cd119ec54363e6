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
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	// ErrNoZip means the address text has no recognizable 5-digit zip and
	// cannot be anchored to a geography.
	ErrNoZip = errors.New("address has no parseable zip code")

	// ErrNoStreet means the address parsed no further than its zip; such
	// rows are skipped rather than keyed on geography alone.
	ErrNoStreet = errors.New("address has no parseable house number and street")
)

// CanonicalAddress is the normalized form of a postal address. Equal
// canonicalized (street, city, zip) triples produce equal dedupe keys
// regardless of case, whitespace, punctuation or USPS abbreviations.
type CanonicalAddress struct {
	Full        string
	HouseNumber string
	Street      []string
	Unit        string
	City        string
	State       string
	Zip         string
}

var suffixMap = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"av":   "avenue",
	"rd":   "road",
	"blvd": "boulevard",
	"dr":   "drive",
	"ln":   "lane",
	"ct":   "court",
	"pl":   "place",
	"hwy":  "highway",
	"rt":   "route",
	"rte":  "route",
	"cir":  "circle",
	"ter":  "terrace",
	"pkwy": "parkway",
	"pky":  "parkway",
}

var directionalMap = map[string]string{
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"ne": "northeast",
	"nw": "northwest",
	"se": "southeast",
	"sw": "southwest",
}

// unitMap normalizes unit designators. All variants collapse to "unit"
// except floors, which stay distinct.
var unitMap = map[string]string{
	"apt":   "unit",
	"ste":   "unit",
	"suite": "unit",
	"unit":  "unit",
	"no":    "unit",
	"#":     "unit",
	"fl":    "floor",
	"floor": "floor",
}

var ordinalWordMap = map[string]string{
	"first":   "1",
	"second":  "2",
	"third":   "3",
	"fourth":  "4",
	"fifth":   "5",
	"sixth":   "6",
	"seventh": "7",
	"eighth":  "8",
	"ninth":   "9",
	"tenth":   "10",
}

var (
	zipRe          = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	stateRe        = regexp.MustCompile(`(?i)\b([A-Z]{2})\b\s*$`)
	ordinalRe      = regexp.MustCompile(`^(\d+)(?:st|nd|rd|th)$`)
	numberRangeRe  = regexp.MustCompile(`^(\d+)-\d+$`)
	houseNumberRe  = regexp.MustCompile(`^\d+(?:[-/]\d+[a-z]?)?$|^\d+[a-z]?$`)
	citySuffixSet  = map[string]bool{"twp": true, "township": true, "boro": true, "borough": true, "city": true}
	attachedUnitRe = regexp.MustCompile(`^#([0-9a-z-]+)$`)
)

// CanonicalizeAddress runs the five-stage canonicalization pipeline:
// sanitize, expand abbreviations, normalize numerics, geo-anchor, and leave
// the result ready for DedupeKey.
func CanonicalizeAddress(full string) (*CanonicalAddress, error) {
	addr := &CanonicalAddress{Full: strings.TrimSpace(full)}
	working := addr.Full

	// geo anchor: zip first, it is the most reliable token
	zipMatches := zipRe.FindAllStringSubmatch(working, -1)
	if len(zipMatches) == 0 {
		return nil, ErrNoZip
	}
	addr.Zip = zipMatches[len(zipMatches)-1][1]
	working = strings.Replace(working, addr.Zip, "", 1)

	working = strings.TrimRight(strings.TrimSpace(working), ",- ")
	if match := stateRe.FindStringSubmatch(working); match != nil {
		addr.State = strings.ToUpper(match[1])
		working = strings.TrimSpace(working[:len(working)-len(match[0])])
	}

	segments := make([]string, 0, 3)
	for _, segment := range strings.Split(working, ",") {
		segment = strings.TrimSpace(segment)
		if segment != "" {
			segments = append(segments, segment)
		}
	}

	var streetPart, cityPart string
	switch len(segments) {
	case 0:
		return nil, ErrNoStreet
	case 1:
		streetPart = segments[0]
	default:
		streetPart = segments[0]
		cityPart = segments[len(segments)-1]
		if len(segments) > 2 {
			// middle segments are usually unit designators; fold them back
			// into the street portion for token processing
			streetPart = strings.Join(segments[:len(segments)-1], " ")
		}
	}

	number, street, unit := parseStreetTokens(sanitizeTokens(streetPart))
	if number == "" || len(street) == 0 {
		return nil, ErrNoStreet
	}

	addr.HouseNumber = number
	addr.Street = street
	addr.Unit = unit
	addr.City = canonicalCity(cityPart)

	return addr, nil
}

// sanitizeTokens lowercases, strips punctuation, and splits on whitespace.
// Hyphens and slashes survive only when adjacent to a digit; '#' survives
// so unit parsing can see it.
func sanitizeTokens(text string) []string {
	lowered := strings.ToLower(text)

	var builder strings.Builder
	runes := []rune(lowered)
	for i, r := range runes {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '#':
			builder.WriteRune(r)
		case r == '-' || r == '/':
			if (i > 0 && isDigit(runes[i-1])) || (i+1 < len(runes) && isDigit(runes[i+1])) {
				builder.WriteRune(r)
			} else {
				builder.WriteRune(' ')
			}
		case r == ',', r == '.', r == '\'', r == '"', r == ';':
			// stripped
		default:
			// transliterate anything non-ascii down to a space; slug
			// handles the rare survivors at key time
			builder.WriteRune(' ')
		}
	}

	return strings.Fields(builder.String())
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// parseStreetTokens walks sanitized tokens extracting the house number,
// expanded street tokens, and any unit designation.
func parseStreetTokens(tokens []string) (number string, street []string, unit string) {
	unitDesignator := ""

	for _, token := range tokens {
		// attached unit: "#4b"
		if match := attachedUnitRe.FindStringSubmatch(token); match != nil {
			unitDesignator = "unit"
			unit = joinUnit(unitDesignator, match[1])
			unitDesignator = ""
			continue
		}

		if unitDesignator != "" {
			unit = joinUnit(unitDesignator, token)
			unitDesignator = ""
			continue
		}

		if mapped, ok := unitMap[token]; ok {
			unitDesignator = mapped
			continue
		}

		// number ranges reduce to the first number: 123-125 -> 123
		if match := numberRangeRe.FindStringSubmatch(token); match != nil {
			token = match[1]
		}

		if number == "" && houseNumberRe.MatchString(token) && isDigit(rune(token[0])) {
			number = token
			continue
		}

		// ordinals to digits: 1st -> 1, third -> 3
		if match := ordinalRe.FindStringSubmatch(token); match != nil {
			token = match[1]
		} else if digit, ok := ordinalWordMap[token]; ok {
			token = digit
		}

		if expanded, ok := suffixMap[token]; ok {
			token = expanded
		} else if expanded, ok := directionalMap[token]; ok {
			token = expanded
		}

		street = append(street, token)
	}

	return number, street, unit
}

func joinUnit(designator, value string) string {
	return designator + " " + value
}

// canonicalCity strips municipal suffixes so "Clifton Twp" and "Clifton"
// anchor identically. A zip match tolerates the remaining city mismatches.
func canonicalCity(city string) string {
	tokens := sanitizeTokens(city)
	for len(tokens) > 0 && citySuffixSet[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// DedupeKey renders the canonical fingerprint:
// {state}-{zip}-{num}-{street_joined}-{unit_or_nounit}. The state prefix
// keeps keys stable across a future multi-state expansion.
func (addr *CanonicalAddress) DedupeKey() string {
	state := strings.ToLower(addr.State)
	if state == "" {
		state = "nj"
	}

	unitSegment := "nounit"
	if addr.Unit != "" {
		unitSegment = addr.Unit
	}

	return slug.Make(fmt.Sprintf("%s %s %s %s %s",
		state, addr.Zip, addr.HouseNumber, strings.Join(addr.Street, " "), unitSegment))
}

// keyParts splits a dedupe key into (prefix, street, unit) where prefix is
// state-zip-number. Used by the fuzzy comparison below.
func keyParts(key string) (prefix, street, unit string, ok bool) {
	segments := strings.Split(key, "-")
	if len(segments) < 4 {
		return "", "", "", false
	}

	prefix = strings.Join(segments[:3], "-")
	rest := segments[3:]

	switch {
	case rest[len(rest)-1] == "nounit":
		unit = "nounit"
		rest = rest[:len(rest)-1]
	case len(rest) >= 2 && (rest[len(rest)-2] == "unit" || rest[len(rest)-2] == "floor"):
		unit = rest[len(rest)-2] + "-" + rest[len(rest)-1]
		rest = rest[:len(rest)-2]
	}

	if len(rest) == 0 {
		return "", "", "", false
	}

	return prefix, strings.Join(rest, "-"), unit, true
}

// KeysFuzzyMatch reports whether two dedupe keys identify the same property
// allowing a single-character street typo. Zip, house number and unit must
// match exactly; the edit-distance fallback never crosses geographies.
func KeysFuzzyMatch(a, b string) bool {
	if a == b {
		return true
	}

	prefixA, streetA, unitA, okA := keyParts(a)
	prefixB, streetB, unitB, okB := keyParts(b)
	if !okA || !okB {
		return false
	}

	if prefixA != prefixB || unitA != unitB {
		return false
	}

	return levenshtein(streetA, streetB) <= 1
}

// KeyPrefix returns the state-zip-number portion of a dedupe key, the
// candidate window for fuzzy matching.
func KeyPrefix(key string) string {
	prefix, _, _, ok := keyParts(key)
	if !ok {
		return key
	}
	return prefix
}

func levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	previous := make([]int, len(rb)+1)
	current := make([]int, len(rb)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		current[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			current[j] = min(previous[j]+1, min(current[j-1]+1, previous[j-1]+cost))
		}
		previous, current = current, previous
	}

	return previous[len(rb)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
