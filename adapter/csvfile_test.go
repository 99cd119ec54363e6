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
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/foreclosurewatch/fwdata/adapter"
	"github.com/foreclosurewatch/fwdata/data"
)

var _ = Describe("CSVImport", func() {
	var uploadPath string

	writeUpload := func(contents string) {
		uploadPath = filepath.Join(GinkgoT().TempDir(), "upload.csv")
		Expect(os.WriteFile(uploadPath, []byte(contents), 0o600)).To(Succeed())
	}

	It("maps the upload template columns onto raw listings", func() {
		writeUpload(`Address,Status,Stage,Auction Date,Opening Bid,Est. Value,Case Title,Home Owner,Phone Number,Occupancy,Notes / Flags,Source URL
"777 Messy Rd, Clifton, NJ 07013",Scheduled,Sheriff Sale,2025-01-15,"$210,000","$340,000",Wells Fargo v. Pat Doe,Pat Doe,973-555-0101,Occupied,needs roof,https://example.com/777
,,,,,,,,,,,
"5 Oak Ave, Clifton, NJ 07013",Adjourned,,,,,US Bank v. Lee Chang,,,,,`)

		imp := adapter.NewCSVImport()
		listings, err := imp.Search(context.Background(), adapter.SearchParams{State: "NJ", FilePath: uploadPath})
		Expect(err).NotTo(HaveOccurred())
		Expect(listings).To(HaveLen(2))

		first := listings[0]
		Expect(first.Address).To(Equal("777 Messy Rd, Clifton, NJ 07013"))
		Expect(first.StageHint).To(Equal("Sheriff Sale"))
		Expect(first.SaleDateText).To(Equal("2025-01-15"))
		Expect(first.OpeningBidText).To(Equal("$210,000"))
		Expect(first.EstimatedValueText).To(Equal("$340,000"))
		Expect(first.Defendant).To(Equal("Pat Doe"))
		Expect(first.OwnerPhone).To(Equal("973-555-0101"))
		Expect(first.SourceType).To(Equal(data.SourceManual))
		Expect(first.SourceName).To(Equal("manual-import"))

		Expect(listings[1].Address).To(Equal("5 Oak Ave, Clifton, NJ 07013"))
		Expect(listings[1].CaseTitle).To(Equal("US Bank v. Lee Chang"))
	})

	It("requires a file path", func() {
		imp := adapter.NewCSVImport()
		_, err := imp.Search(context.Background(), adapter.SearchParams{State: "NJ"})
		Expect(err).To(HaveOccurred())
	})

	It("reports unreadable uploads", func() {
		imp := adapter.NewCSVImport()
		_, err := imp.Search(context.Background(), adapter.SearchParams{
			State:    "NJ",
			FilePath: filepath.Join(GinkgoT().TempDir(), "missing.csv"),
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Registry", func() {
	It("registers the NJ adapters by default", func() {
		adapters := adapter.Default.ForState("NJ")
		ids := make([]string, 0, len(adapters))
		for _, item := range adapters {
			ids = append(ids, item.ID())
		}
		Expect(ids).To(Equal([]string{"auctionhub", "civilview", "manual-import"}))
	})

	It("finds adapters case-insensitively by state", func() {
		Expect(adapter.Default.ForState("nj")).To(HaveLen(3))
		Expect(adapter.Default.ForState("NY")).To(BeEmpty())
	})

	It("looks up a single adapter by id", func() {
		found := adapter.Default.Get("NJ", "civilview")
		Expect(found).NotTo(BeNil())
		Expect(found.Label()).To(Equal("CivilView County Sheriff Sales"))

		Expect(adapter.Default.Get("NJ", "nope")).To(BeNil())
	})
})
