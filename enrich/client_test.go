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
package enrich_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/enrich"
)

type stubScorer struct {
	analysis *data.RiskAnalysis
	err      error
	calls    int
}

func (scorer *stubScorer) Analyze(_ context.Context, _ *enrich.Request) (*data.RiskAnalysis, error) {
	scorer.calls++
	return scorer.analysis, scorer.err
}

func ptr[T any](value T) *T { return &value }

var _ = Describe("Client", func() {
	var listing *data.ActiveListing

	BeforeEach(func() {
		// effectively unlimited budget so specs don't sleep
		viper.Set("riskservice.rate_limit", 600000)

		listing = &data.ActiveListing{
			Property: &data.Property{
				DedupeKey:      "nj-07013-777-messy-road-nounit",
				EstimatedValue: ptr(340000.0),
				EquityPct:      ptr(38.2),
				HeuristicBand:  data.BandLow,
			},
			Event: &data.ForeclosureEvent{
				Stage:      data.StageSheriffSale,
				OpeningBid: ptr(210000.0),
			},
		}
	})

	It("returns a valid analysis untouched", func() {
		scorer := &stubScorer{analysis: &data.RiskAnalysis{
			Score:     82,
			Band:      data.BandLow,
			Summary:   "clean title, strong equity",
			Rationale: "no junior liens found",
		}}

		analysis, err := enrich.NewClient(scorer).Enrich(context.Background(), listing)
		Expect(err).NotTo(HaveOccurred())
		Expect(analysis.Score).To(Equal(82))
		Expect(analysis.Band).To(Equal(data.BandLow))
		Expect(analysis.AnalyzedAt).NotTo(BeZero())
	})

	It("auto-rejects deep negative equity without calling the service", func() {
		listing.Property.EquityPct = ptr(-35.0)
		scorer := &stubScorer{}

		analysis, err := enrich.NewClient(scorer).Enrich(context.Background(), listing)
		Expect(err).NotTo(HaveOccurred())
		Expect(scorer.calls).To(BeZero())
		Expect(analysis.Score).To(Equal(0))
		Expect(analysis.Band).To(Equal(data.BandHigh))
		Expect(analysis.Summary).To(Equal("auto-rejected: deep negative equity"))
	})

	It("does not auto-reject equity at exactly the floor", func() {
		listing.Property.EquityPct = ptr(-20.0)
		scorer := &stubScorer{analysis: &data.RiskAnalysis{
			Score: 12, Band: data.BandHigh, Summary: "thin margin", Rationale: "negative equity",
		}}

		analysis, err := enrich.NewClient(scorer).Enrich(context.Background(), listing)
		Expect(err).NotTo(HaveOccurred())
		Expect(scorer.calls).To(Equal(1))
		Expect(analysis.Summary).To(Equal("thin margin"))
	})

	It("degrades to the heuristic band when the service fails", func() {
		scorer := &stubScorer{err: fmt.Errorf("connection refused")}

		analysis, err := enrich.NewClient(scorer).Enrich(context.Background(), listing)
		Expect(err).To(HaveOccurred())
		Expect(analysis.Band).To(Equal(data.BandLow))
		Expect(analysis.Summary).To(Equal("unavailable"))
	})

	DescribeTable("rejects structurally invalid analyses",
		func(analysis *data.RiskAnalysis) {
			scorer := &stubScorer{analysis: analysis}

			result, err := enrich.NewClient(scorer).Enrich(context.Background(), listing)
			Expect(err).To(HaveOccurred())
			Expect(result.Summary).To(Equal("unavailable"))
			Expect(result.Band).To(Equal(data.BandLow))
		},
		Entry("score above 100", &data.RiskAnalysis{Score: 101, Band: data.BandLow, Summary: "s", Rationale: "r"}),
		Entry("negative score", &data.RiskAnalysis{Score: -1, Band: data.BandLow, Summary: "s", Rationale: "r"}),
		Entry("made-up band", &data.RiskAnalysis{Score: 50, Band: "Medium-Rare", Summary: "s", Rationale: "r"}),
		Entry("empty summary", &data.RiskAnalysis{Score: 50, Band: data.BandLow, Rationale: "r"}),
		Entry("empty rationale", &data.RiskAnalysis{Score: 50, Band: data.BandLow, Summary: "s"}),
		Entry("nil analysis", nil),
	)
})

var _ = Describe("BuildRequest", func() {
	It("carries event fields when a cycle is open", func() {
		request := enrich.BuildRequest(&data.Property{
			Address:   data.Address{Full: "777 Messy Road, Clifton, NJ 07013"},
			EquityPct: ptr(38.2),
		}, &data.ForeclosureEvent{
			Stage:      data.StageAuction,
			Status:     "Scheduled",
			OpeningBid: ptr(210000.0),
		})

		Expect(request.Address).To(Equal("777 Messy Road, Clifton, NJ 07013"))
		Expect(request.Stage).To(Equal(data.StageAuction))
		Expect(request.OpeningBid).To(HaveValue(Equal(210000.0)))
	})

	It("marks the stage unknown between cycles", func() {
		request := enrich.BuildRequest(&data.Property{}, nil)
		Expect(request.Stage).To(Equal(data.StageUnknown))
	})
})
