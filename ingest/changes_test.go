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
package ingest_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/ingest"
	"github.com/foreclosurewatch/fwdata/normalize"
)

func fptr(value float64) *float64 { return &value }

func tptr(value string) *time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	Expect(err).NotTo(HaveOccurred())
	return &parsed
}

var _ = Describe("DetectChanges", func() {
	baseEvent := func() *data.ForeclosureEvent {
		return &data.ForeclosureEvent{
			Stage:      data.StageSheriffSale,
			SaleDate:   tptr("2025-01-15"),
			OpeningBid: fptr(200000),
		}
	}

	It("detects nothing without an open event", func() {
		changes := ingest.DetectChanges(nil, &normalize.CanonicalListing{Stage: data.StageREO})
		Expect(changes.Significant()).To(BeFalse())
	})

	DescribeTable("opening bid moves",
		func(newBid float64, expectChange bool) {
			changes := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{
				Stage:      data.StageSheriffSale,
				OpeningBid: fptr(newBid),
			})
			Expect(changes.PriceChanged).To(Equal(expectChange))
		},
		Entry("six percent up is a change", 212001.0, true),
		Entry("five percent exactly is not", 210000.0, false),
		Entry("small nudge is not", 201000.0, false),
		Entry("six percent down is a change", 188000.0, true),
	)

	It("classifies rank increases as advances and same-rank moves as lateral", func() {
		advance := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{Stage: data.StageREO})
		Expect(advance.StageAdvanced).To(BeTrue())
		Expect(advance.Significant()).To(BeTrue())

		lateral := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{Stage: data.StageAuction})
		Expect(lateral.StageAdvanced).To(BeFalse())
		Expect(lateral.StageMoved).To(BeTrue())
		Expect(lateral.Significant()).To(BeFalse())
	})

	It("ignores rank decreases from lagging sources", func() {
		changes := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{
			Stage: data.StagePreForeclosure,
		})
		Expect(changes.StageAdvanced).To(BeFalse())
		Expect(changes.StageMoved).To(BeFalse())
	})

	It("ignores an unknown incoming stage", func() {
		changes := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{
			Stage: data.StageUnknown,
		})
		Expect(changes.StageAdvanced).To(BeFalse())
		Expect(changes.StageMoved).To(BeFalse())
	})

	It("separates a moved sale date from a first-published one", func() {
		moved := ingest.DetectChanges(baseEvent(), &normalize.CanonicalListing{
			Stage:    data.StageSheriffSale,
			SaleDate: tptr("2025-02-19"),
		})
		Expect(moved.SaleDateMoved).To(BeTrue())
		Expect(moved.Significant()).To(BeTrue())

		event := baseEvent()
		event.SaleDate = nil
		published := ingest.DetectChanges(event, &normalize.CanonicalListing{
			Stage:    data.StageSheriffSale,
			SaleDate: tptr("2025-02-19"),
		})
		Expect(published.SaleDateSet).To(BeTrue())
		Expect(published.SaleDateMoved).To(BeFalse())
		Expect(published.Significant()).To(BeFalse())
	})
})
