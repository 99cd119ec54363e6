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
package normalize_test

import (
	"regexp"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/normalize"
)

var keyShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func dedupeKey(address string) string {
	addr, err := normalize.CanonicalizeAddress(address)
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return addr.DedupeKey()
}

var _ = Describe("CanonicalizeAddress", func() {
	It("parses a full comma-separated address", func() {
		addr, err := normalize.CanonicalizeAddress("100 Garden State Pkwy, Woodbridge, NJ 07095")
		Expect(err).NotTo(HaveOccurred())
		Expect(addr.HouseNumber).To(Equal("100"))
		Expect(addr.Street).To(Equal([]string{"garden", "state", "parkway"}))
		Expect(addr.City).To(Equal("woodbridge"))
		Expect(addr.State).To(Equal("NJ"))
		Expect(addr.Zip).To(Equal("07095"))
		Expect(addr.Unit).To(BeEmpty())
	})

	It("captures unit designators", func() {
		addr, err := normalize.CanonicalizeAddress("12 Oak St Apt 4B, Newark, NJ 07102")
		Expect(err).NotTo(HaveOccurred())
		Expect(addr.Unit).To(Equal("unit 4b"))
	})

	It("rejects addresses without a zip", func() {
		_, err := normalize.CanonicalizeAddress("100 Main Street, Newark")
		Expect(err).To(MatchError(normalize.ErrNoZip))
	})

	It("rejects addresses that parse no further than the zip", func() {
		_, err := normalize.CanonicalizeAddress("Somewhere, NJ 07102")
		Expect(err).To(MatchError(normalize.ErrNoStreet))
	})
})

var _ = Describe("DedupeKey", func() {
	It("matches the canonical shape", func() {
		key := dedupeKey("100 Garden State Pkwy, Woodbridge, NJ 07095")
		Expect(key).To(MatchRegexp(keyShape.String()))
		Expect(key).To(Equal("nj-07095-100-garden-state-parkway-nounit"))
	})

	It("is deterministic", func() {
		first := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		second := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		Expect(first).To(Equal(second))
	})

	DescribeTable("equal keys across known equivalences",
		func(left, right string) {
			Expect(dedupeKey(left)).To(Equal(dedupeKey(right)))
		},
		Entry("messy whitespace and township suffix",
			"777  Messy   Road ,   Clifton  , NJ 07013 ",
			"777 Messy Rd, Clifton Twp, NJ 07013"),
		Entry("case differences",
			"100 MAIN STREET, NEWARK, NJ 07102",
			"100 main st, Newark, NJ 07102"),
		Entry("punctuation",
			"45 St. George's Ave., Rahway, NJ 07065",
			"45 St Georges Ave, Rahway, NJ 07065"),
		Entry("directional abbreviation",
			"9 N Broad St, Elizabeth, NJ 07201",
			"9 North Broad Street, Elizabeth, NJ 07201"),
		Entry("ordinal spelled out",
			"12 Third St, Hoboken, NJ 07030",
			"12 3rd Street, Hoboken, NJ 07030"),
		Entry("number range reduced to first number",
			"123-125 Elm Ave, Trenton, NJ 08618",
			"123 Elm Avenue, Trenton, NJ 08618"),
		Entry("unit designator variants",
			"12 Oak St Apt 4B, Newark, NJ 07102",
			"12 Oak Street # 4B, Newark, NJ 07102"),
		Entry("boro suffix",
			"8 River Rd, Fair Lawn Boro, NJ 07410",
			"8 River Road, Fair Lawn, NJ 07410"),
	)

	It("distinguishes different units at the same address", func() {
		withUnit := dedupeKey("12 Oak St Apt 4B, Newark, NJ 07102")
		without := dedupeKey("12 Oak St, Newark, NJ 07102")
		Expect(withUnit).NotTo(Equal(without))
	})

	It("distinguishes different house numbers", func() {
		Expect(dedupeKey("100 Main St, Newark, NJ 07102")).
			NotTo(Equal(dedupeKey("102 Main St, Newark, NJ 07102")))
	})
})

var _ = Describe("KeysFuzzyMatch", func() {
	It("accepts a single-character street typo", func() {
		clean := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		typo := dedupeKey("777 Mesy Rd, Clifton, NJ 07013")
		Expect(normalize.KeysFuzzyMatch(clean, typo)).To(BeTrue())
	})

	It("never matches across zips", func() {
		a := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		b := dedupeKey("777 Messy Rd, Clifton, NJ 07014")
		Expect(normalize.KeysFuzzyMatch(a, b)).To(BeFalse())
	})

	It("never matches across house numbers", func() {
		a := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		b := dedupeKey("779 Messy Rd, Clifton, NJ 07013")
		Expect(normalize.KeysFuzzyMatch(a, b)).To(BeFalse())
	})

	It("rejects larger street edits", func() {
		a := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		b := dedupeKey("777 Mossy Brook Rd, Clifton, NJ 07013")
		Expect(normalize.KeysFuzzyMatch(a, b)).To(BeFalse())
	})
})

var _ = Describe("KeyPrefix", func() {
	It("returns the state-zip-number window", func() {
		key := dedupeKey("777 Messy Rd, Clifton, NJ 07013")
		Expect(normalize.KeyPrefix(key)).To(Equal("nj-07013-777"))
	})

	It("falls back to the whole key when the key does not parse", func() {
		Expect(normalize.KeyPrefix("nj-07013")).To(Equal("nj-07013"))
	})
})
