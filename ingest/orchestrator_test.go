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
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
	"github.com/foreclosurewatch/fwdata/ingest"
)

// stubAdapter replays canned batches, one per Search call.
type stubAdapter struct {
	id      string
	batches [][]*data.RawListing
	err     error
	calls   int
}

func (stub *stubAdapter) ID() string                 { return stub.id }
func (stub *stubAdapter) Label() string              { return stub.id }
func (stub *stubAdapter) SupportsState(_ string) bool { return true }

func (stub *stubAdapter) Search(_ context.Context, _ adapter.SearchParams) ([]*data.RawListing, error) {
	stub.calls++
	if stub.err != nil {
		return nil, stub.err
	}

	batch := stub.batches[0]
	if len(stub.batches) > 1 {
		stub.batches = stub.batches[1:]
	}
	return batch, nil
}

func rows(count int, sourceName string) []*data.RawListing {
	batch := make([]*data.RawListing, 0, count)
	for idx := 0; idx < count; idx++ {
		batch = append(batch, &data.RawListing{
			Address:        fmt.Sprintf("%d Main St, Newark, NJ 07102", 100+idx),
			Status:         "Scheduled",
			StageHint:      "Sheriff Sale",
			SaleDateText:   "2025-01-15",
			OpeningBidText: "$200,000",
			SourceType:     data.SourceScraper,
			SourceName:     sourceName,
		})
	}
	return batch
}

var _ = Describe("Orchestrator", func() {
	var store *memStore
	var registry *adapter.Registry
	var breaker *ingest.Breaker
	ctx := context.Background()

	BeforeEach(func() {
		store = newMemStore()
		registry = adapter.NewRegistry()
		breaker = ingest.NewBreaker(time.Hour)
	})

	run := func(params adapter.SearchParams) *data.IngestionResult {
		orchestrator := ingest.NewOrchestrator(store, registry, breaker)
		return orchestrator.Run(ctx, params)
	}

	It("ingests every adapter's batch and records volume", func() {
		registry.Register("NJ", "civilview", func() adapter.Adapter {
			return &stubAdapter{id: "civilview", batches: [][]*data.RawListing{rows(4, "civilview")}}
		})
		registry.Register("NJ", "auctionhub", func() adapter.Adapter {
			return &stubAdapter{id: "auctionhub", batches: [][]*data.RawListing{rows(2, "auctionhub")}}
		})

		result := run(adapter.SearchParams{State: "NJ", County: "Essex"})

		Expect(result.Adapters).To(HaveLen(2))
		Expect(result.Created() + result.Updated()).To(Equal(6))
		// four distinct addresses; auctionhub re-reports two of them
		Expect(store.properties).To(HaveLen(4))
		Expect(store.volumes["civilview"]).To(Equal([]int{4}))
		Expect(store.volumes["auctionhub"]).To(Equal([]int{2}))
	})

	It("counts rows skipped by normalization without dead-lettering them", func() {
		batch := rows(3, "civilview")
		batch[1].Address = "somewhere in NJ 07102" // no street
		registry.Register("NJ", "civilview", func() adapter.Adapter {
			return &stubAdapter{id: "civilview", batches: [][]*data.RawListing{batch}}
		})

		result := run(adapter.SearchParams{State: "NJ"})

		Expect(result.Adapters[0].RawCount).To(Equal(3))
		Expect(result.Adapters[0].NormalizedCount).To(Equal(2))
		Expect(result.Adapters[0].ItemsSkippedNormalization).To(Equal(1))
		Expect(store.deadLetters).To(BeEmpty())
	})

	It("retries a failed search once and reports the failure", func() {
		stub := &stubAdapter{id: "civilview", err: fmt.Errorf("connection reset")}
		registry.Register("NJ", "civilview", func() adapter.Adapter { return stub })

		result := run(adapter.SearchParams{State: "NJ"})

		Expect(stub.calls).To(Equal(2))
		Expect(result.Adapters[0].Error).To(Equal("search failed"))
		Expect(store.properties).To(BeEmpty())
	})

	It("trips the circuit on schema drift and leaves the store untouched", func() {
		batch := rows(10, "civilview")
		for idx := 0; idx < 3; idx++ {
			batch[idx].Address = ""
		}
		registry.Register("NJ", "civilview", func() adapter.Adapter {
			return &stubAdapter{id: "civilview", batches: [][]*data.RawListing{batch}}
		})

		result := run(adapter.SearchParams{State: "NJ"})
		Expect(result.Adapters[0].Error).To(Equal("schema drift"))
		Expect(store.properties).To(BeEmpty())
		Expect(store.volumes).To(BeEmpty())

		// circuit stays open inside the cooldown
		result = run(adapter.SearchParams{State: "NJ"})
		Expect(result.Adapters[0].Error).To(Equal("circuit open"))
	})

	It("discards anomalously small batches untouched", func() {
		store.averages["civilview"] = 100
		registry.Register("NJ", "civilview", func() adapter.Adapter {
			return &stubAdapter{id: "civilview", batches: [][]*data.RawListing{rows(5, "civilview")}}
		})

		result := run(adapter.SearchParams{State: "NJ"})

		Expect(result.Adapters[0].Error).To(Equal("volume anomaly"))
		Expect(store.properties).To(BeEmpty())
		Expect(store.volumes).To(BeEmpty())
		Expect(result.AllFailedWith("volume anomaly")).To(BeTrue())
	})

	It("accepts batches above the yield threshold", func() {
		store.averages["civilview"] = 100
		registry.Register("NJ", "civilview", func() adapter.Adapter {
			return &stubAdapter{id: "civilview", batches: [][]*data.RawListing{rows(11, "civilview")}}
		})

		result := run(adapter.SearchParams{State: "NJ"})

		Expect(result.Adapters[0].Error).To(BeEmpty())
		Expect(store.properties).To(HaveLen(11))
	})
})
