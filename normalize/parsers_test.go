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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/normalize"
)

var _ = Describe("ParseMoney", func() {
	DescribeTable("parses dollar amounts",
		func(input string, expected float64) {
			amount := normalize.ParseMoney(input)
			Expect(amount).NotTo(BeNil())
			Expect(*amount).To(BeNumerically("~", expected, 1e-9))
		},
		Entry("formatted dollars", "$123,456.00", 123456.00),
		Entry("thousands separator only", "1,200", 1200.0),
		Entry("bare integer", "450000", 450000.0),
		Entry("interior whitespace", "$ 120,000.50 ", 120000.50),
	)

	DescribeTable("returns nil for placeholders and junk",
		func(input string) {
			Expect(normalize.ParseMoney(input)).To(BeNil())
		},
		Entry("empty", ""),
		Entry("not available", "N/A"),
		Entry("to be determined", "TBD"),
		Entry("words", "call sheriff office"),
	)
})

var _ = Describe("ParseSaleDate", func() {
	It("parses ISO dates to UTC midnight", func() {
		date := normalize.ParseSaleDate("2024-12-25")
		Expect(date).NotTo(BeNil())
		Expect(*date).To(Equal(time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)))
	})

	It("parses US-style dates", func() {
		date := normalize.ParseSaleDate("1/15/2024")
		Expect(date).NotTo(BeNil())
		Expect(*date).To(Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	})

	DescribeTable("status keywords beat embedded dates",
		func(input string) {
			Expect(normalize.ParseSaleDate(input)).To(BeNil())
		},
		Entry("adjourned with date", "Adjourned to 1/15"),
		Entry("postponed", "Postponed"),
		Entry("cancelled", "Cancelled 12/25/2024"),
		Entry("tbd", "TBD"),
		Entry("not available", "n/a"),
		Entry("set for sale", "Set for Sale"),
		Entry("empty", "  "),
	)
})

var _ = Describe("InferStage", func() {
	DescribeTable("classifies by keyword priority",
		func(hint, status string, expected data.Stage) {
			Expect(normalize.InferStage(hint, status)).To(Equal(expected))
		},
		Entry("sheriff sale", "Sheriff Sale", "Scheduled", data.StageSheriffSale),
		Entry("adjourned implies sheriff", "", "Adjourned", data.StageSheriffSale),
		Entry("auction platform", "bid4assets", "", data.StageAuction),
		Entry("trustee auction", "", "Trustee Auction", data.StageAuction),
		Entry("REO", "REO", "", data.StageREO),
		Entry("bank owned", "", "Bank Owned", data.StageREO),
		Entry("REO outranks scheduled", "", "Scheduled for REO resale", data.StageREO),
		Entry("lis pendens", "Lis Pendens", "", data.StagePreForeclosure),
		Entry("nothing recognizable", "", "open file", data.StageUnknown),
	)
})

var _ = Describe("SplitCaseTitle", func() {
	DescribeTable("splits on the versus separator",
		func(title, wantPlaintiff, wantDefendant string) {
			plaintiff, defendant := normalize.SplitCaseTitle(title)
			Expect(plaintiff).To(Equal(wantPlaintiff))
			Expect(defendant).To(Equal(wantDefendant))
		},
		Entry("v.", "US Bank Trust v. James T. Kirk", "US Bank Trust", "James T. Kirk"),
		Entry("vs", "WELLS FARGO vs SMITH", "WELLS FARGO", "SMITH"),
		Entry("vs.", "Wells Fargo VS. Smith", "Wells Fargo", "Smith"),
		Entry("versus", "Bank versus Jones", "Bank", "Jones"),
		Entry("no separator", "ESTATE OF DOE", "", "ESTATE OF DOE"),
		Entry("empty", "", "", ""),
	)
})

var _ = Describe("HeuristicBand", func() {
	ptr := func(v float64) *float64 { return &v }

	DescribeTable("bands by equity percent",
		func(equity *float64, expected data.RiskBand) {
			Expect(normalize.HeuristicBand(equity)).To(Equal(expected))
		},
		Entry("nil equity", (*float64)(nil), data.BandUnknown),
		Entry("high equity", ptr(50.0), data.BandLow),
		Entry("boundary 25", ptr(25.0), data.BandLow),
		Entry("moderate", ptr(15.0), data.BandModerate),
		Entry("boundary 10", ptr(10.0), data.BandModerate),
		Entry("thin", ptr(5.0), data.BandHigh),
		Entry("underwater", ptr(-10.0), data.BandHigh),
	)
})

var _ = Describe("EquityPct", func() {
	ptr := func(v float64) *float64 { return &v }

	It("computes (est - bid) / est * 100", func() {
		pct := data.EquityPct(ptr(300000), ptr(150000))
		Expect(pct).NotTo(BeNil())
		Expect(*pct).To(BeNumerically("~", 50.0, 1e-6))
	})

	It("is nil when the estimate is missing", func() {
		Expect(data.EquityPct(nil, ptr(150000))).To(BeNil())
	})

	It("is nil when the bid is missing", func() {
		Expect(data.EquityPct(ptr(300000), nil)).To(BeNil())
	})

	It("is nil when the estimate is non-positive", func() {
		Expect(data.EquityPct(ptr(0), ptr(100))).To(BeNil())
	})
})
