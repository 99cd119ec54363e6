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
package adapter_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"

	"github.com/foreclosurewatch/fwdata/adapter"
)

var _ = Describe("CivilView", func() {
	var server *httptest.Server

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
		viper.Set("adapters.civilview.url", "")
	})

	newServer := func(handler http.HandlerFunc) *adapter.CivilView {
		server = httptest.NewServer(handler)
		viper.Set("adapters.civilview.url", server.URL)
		return adapter.NewCivilView()
	}

	It("discovers columns from headers, not positions", func() {
		cv := newServer(func(w http.ResponseWriter, r *http.Request) {
			// sale date ahead of address: a reordered county table
			fmt.Fprint(w, `{
				"columns": ["Sales Date", "Status", "Address", "Approx. Upset", "Case Title"],
				"rows": [
					["2024-12-25", "Scheduled", "100 Garden State Pkwy, Woodbridge, NJ 07095", "$150,000.00", "US Bank Trust v. James T. Kirk"]
				]
			}`)
		})

		listings, err := cv.Search(context.Background(), adapter.SearchParams{State: "NJ", County: "Middlesex"})
		Expect(err).NotTo(HaveOccurred())
		Expect(listings).To(HaveLen(1))
		Expect(listings[0].Address).To(Equal("100 Garden State Pkwy, Woodbridge, NJ 07095"))
		Expect(listings[0].SaleDateText).To(Equal("2024-12-25"))
		Expect(listings[0].OpeningBidText).To(Equal("$150,000.00"))
		Expect(listings[0].CaseTitle).To(Equal("US Bank Trust v. James T. Kirk"))
	})

	It("follows pagination and skips empty rows", func() {
		cv := newServer(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.URL.Path, "page2") {
				fmt.Fprint(w, `{
					"columns": ["Address", "Status"],
					"rows": [["200 Second St, Newark, NJ 07102", "Adjourned"]]
				}`)
				return
			}
			fmt.Fprintf(w, `{
				"columns": ["Address", "Status"],
				"rows": [
					["100 First St, Newark, NJ 07102", "Scheduled"],
					[]
				],
				"next": "%s/page2"
			}`, "http://"+r.Host)
		})

		listings, err := cv.Search(context.Background(), adapter.SearchParams{State: "NJ"})
		Expect(err).NotTo(HaveOccurred())
		Expect(listings).To(HaveLen(2))
		Expect(listings[1].Status).To(Equal("Adjourned"))
	})

	It("enriches rows from detail pages and isolates detail failures", func() {
		cv := newServer(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.Contains(r.URL.Path, "detail-ok"):
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"owner_phone": "973-555-0100", "occupancy": "Occupied", "notes": "rear entrance"}`)
			case strings.Contains(r.URL.Path, "detail-dead"):
				w.WriteHeader(http.StatusInternalServerError)
			default:
				fmt.Fprintf(w, `{
					"columns": ["Address", "Details"],
					"rows": [
						["1 Ok St, Newark, NJ 07102", "%[1]s/detail-ok"],
						["2 Dead St, Newark, NJ 07102", "%[1]s/detail-dead"]
					]
				}`, "http://"+r.Host)
			}
		})

		listings, err := cv.Search(context.Background(), adapter.SearchParams{State: "NJ"})
		Expect(err).NotTo(HaveOccurred())
		Expect(listings).To(HaveLen(2))
		Expect(listings[0].OwnerPhone).To(Equal("973-555-0100"))
		Expect(listings[0].Occupancy).To(Equal("Occupied"))
		Expect(listings[1].OwnerPhone).To(BeEmpty())
		Expect(listings[1].Address).To(Equal("2 Dead St, Newark, NJ 07102"))
	})

	It("returns an error with whatever was collected when the list page dies", func() {
		cv := newServer(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})

		listings, err := cv.Search(context.Background(), adapter.SearchParams{State: "NJ"})
		Expect(err).To(HaveOccurred())
		Expect(listings).To(BeEmpty())
	})

	It("only supports NJ", func() {
		cv := adapter.NewCivilView()
		Expect(cv.SupportsState("nj")).To(BeTrue())
		Expect(cv.SupportsState("NY")).To(BeFalse())
	})
})
