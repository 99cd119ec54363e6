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
	"context"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/ingest"
	"github.com/foreclosurewatch/fwdata/normalize"
)

func mustNormalize(raw *data.RawListing) *normalize.CanonicalListing {
	listing, err := normalize.NormalizeRawListing(raw)
	Expect(err).NotTo(HaveOccurred())
	return listing
}

func civilviewRow() *data.RawListing {
	return &data.RawListing{
		Address:            "777 Messy Rd, Clifton, NJ 07013",
		Status:             "Scheduled",
		StageHint:          "Sheriff Sale",
		SaleDateText:       "2025-01-15",
		OpeningBidText:     "$210,000",
		EstimatedValueText: "$340,000",
		CaseTitle:          "Wells Fargo v. Pat Doe",
		SourceType:         data.SourceScraper,
		SourceName:         "civilview",
	}
}

var _ = Describe("Pipeline", func() {
	var store *memStore
	var pipeline *ingest.Pipeline
	ctx := context.Background()

	BeforeEach(func() {
		store = newMemStore()
		pipeline = ingest.NewPipeline(store)
	})

	It("creates a property, opens its event, and seeds the timeline", func() {
		created, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		property := store.properties["nj-07013-777-messy-road-nounit"]
		Expect(property).NotTo(BeNil())
		Expect(property.Address.County).To(Equal("Passaic"))
		Expect(property.EquityPct).To(HaveValue(BeNumerically("~", 38.2, 0.1)))
		Expect(property.HeuristicBand).To(Equal(data.BandLow))
		Expect(property.EnrichmentDirty).To(BeTrue())

		events := store.activeEvents()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Stage).To(Equal(data.StageSheriffSale))
		Expect(events[0].Plaintiff).To(Equal("Wells Fargo"))

		scheduled := store.entriesOfKind(data.KindSheriffSaleScheduled)
		Expect(scheduled).To(HaveLen(1))
		Expect(scheduled[0].Date.Format("2006-01-02")).To(Equal("2025-01-15"))
	})

	It("is idempotent for the same row ingested twice", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		property := store.properties["nj-07013-777-messy-road-nounit"]
		firstUpdated := property.LastUpdated

		created, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		Expect(store.activeEvents()).To(HaveLen(1))
		Expect(store.timeline).To(HaveLen(1))

		property = store.properties["nj-07013-777-messy-road-nounit"]
		Expect(property.LastUpdated).To(Equal(firstUpdated))
		Expect(property.LastSeenAt).To(BeTemporally(">=", firstUpdated))
	})

	It("merges messy variants of the same address into one property", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		variant := civilviewRow()
		variant.Address = "777  Messy   Road , Clifton Twp , NJ 07013"
		created, err := pipeline.UpsertListing(ctx, mustNormalize(variant), "Passaic")
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		Expect(store.properties).To(HaveLen(1))
	})

	It("records a price change with equity on both sides", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		repriced := civilviewRow()
		repriced.OpeningBidText = "$250,000"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(repriced), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		moves := store.entriesOfKind(data.KindPriceChange)
		Expect(moves).To(HaveLen(1))

		payload := &data.PriceChangePayload{}
		Expect(json.Unmarshal(moves[0].Payload, payload)).To(Succeed())
		Expect(payload.OldBid).To(HaveValue(Equal(210000.0)))
		Expect(payload.NewBid).To(HaveValue(Equal(250000.0)))
		Expect(payload.NewEquityPct).To(HaveValue(BeNumerically("~", 26.5, 0.1)))

		events := store.activeEvents()
		Expect(events[0].OpeningBid).To(HaveValue(Equal(250000.0)))

		property := store.properties["nj-07013-777-messy-road-nounit"]
		Expect(property.EquityPct).To(HaveValue(BeNumerically("~", 26.5, 0.1)))
		Expect(property.PrevEquityPct).To(HaveValue(BeNumerically("~", 38.2, 0.1)))
		Expect(property.EnrichmentDirty).To(BeTrue())
	})

	It("ignores bid moves at or under five percent", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		nudged := civilviewRow()
		nudged.OpeningBidText = "$218,000"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(nudged), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		Expect(store.entriesOfKind(data.KindPriceChange)).To(BeEmpty())
	})

	It("records an adjournment keyed on the new sale date", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		adjourned := civilviewRow()
		adjourned.SaleDateText = "2025-02-19"
		adjourned.Status = "Adjourned"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(adjourned), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		entries := store.entriesOfKind(data.KindSheriffSaleAdjourned)
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Date.Format("2006-01-02")).To(Equal("2025-02-19"))

		payload := &data.AdjournmentPayload{}
		Expect(json.Unmarshal(entries[0].Payload, payload)).To(Succeed())
		Expect(payload.OriginalDate).To(Equal("2025-01-15"))
		Expect(payload.NewDate).To(Equal("2025-02-19"))

		// the same adjournment reported again is a no-op
		_, err = pipeline.UpsertListing(ctx, mustNormalize(adjourned), "Passaic")
		Expect(err).NotTo(HaveOccurred())
		Expect(store.entriesOfKind(data.KindSheriffSaleAdjourned)).To(HaveLen(1))
	})

	It("closes the old event and opens a new one on stage advance", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		reo := civilviewRow()
		reo.StageHint = "Bank Owned"
		reo.Status = "REO Resale"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(reo), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		active := store.activeEvents()
		Expect(active).To(HaveLen(1))
		Expect(active[0].Stage).To(Equal(data.StageREO))

		Expect(store.events).To(HaveLen(2))
		Expect(store.entriesOfKind(data.KindSoldToPlaintiff)).To(HaveLen(1))
	})

	It("lets a lower-reliability source fill blanks but not overwrite", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		aggregator := civilviewRow()
		aggregator.SourceName = "auctionhub"
		aggregator.SourceType = data.SourceAPI
		aggregator.EstimatedValueText = "$999,999"
		aggregator.BedsText = "3"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(aggregator), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		property := store.properties["nj-07013-777-messy-road-nounit"]
		Expect(property.EstimatedValue).To(HaveValue(Equal(340000.0)))
		Expect(property.Beds).To(HaveValue(Equal(3)))
		Expect(property.SourceName).To(Equal("civilview"))
	})

	It("lets an equal-or-higher reliability source overwrite", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		upload := civilviewRow()
		upload.SourceName = "manual-import"
		upload.SourceType = data.SourceManual
		upload.EstimatedValueText = "$360,000"
		_, err = pipeline.UpsertListing(ctx, mustNormalize(upload), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		property := store.properties["nj-07013-777-messy-road-nounit"]
		Expect(property.EstimatedValue).To(HaveValue(Equal(360000.0)))
		Expect(property.SourceName).To(Equal("manual-import"))
	})

	It("opens a fresh cycle when a property resurfaces", func() {
		_, err := pipeline.UpsertListing(ctx, mustNormalize(civilviewRow()), "Passaic")
		Expect(err).NotTo(HaveOccurred())

		// close the cycle, as the reconciliation job would after a sale
		for _, event := range store.activeEvents() {
			event.Active = false
		}

		relisted := civilviewRow()
		relisted.SaleDateText = "2026-03-04"
		created, err := pipeline.UpsertListing(ctx, mustNormalize(relisted), "Passaic")
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeFalse())

		active := store.activeEvents()
		Expect(active).To(HaveLen(1))
		Expect(active[0].SaleDate.Format("2006-01-02")).To(Equal("2026-03-04"))
	})
})
