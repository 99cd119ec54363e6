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

	"github.com/foreclosurewatch/fwdata/ingest"
)

var _ = Describe("Breaker", func() {
	const cooldown = 25 * time.Millisecond

	It("admits adapters until tripped", func() {
		breaker := ingest.NewBreaker(cooldown)
		Expect(breaker.Allow("civilview")).To(BeTrue())
		Expect(breaker.Allow("civilview")).To(BeTrue())

		breaker.Trip("civilview")
		Expect(breaker.Allow("civilview")).To(BeFalse())
		Expect(breaker.Allow("auctionhub")).To(BeTrue())
	})

	It("admits one probe after the cooldown", func() {
		breaker := ingest.NewBreaker(cooldown)
		breaker.Trip("civilview")

		Eventually(func() bool {
			return breaker.Allow("civilview")
		}, 10*cooldown, cooldown).Should(BeTrue())

		// the probe slot is taken; nobody else gets in
		Expect(breaker.Allow("civilview")).To(BeFalse())
	})

	It("closes after a healthy probe", func() {
		breaker := ingest.NewBreaker(cooldown)
		breaker.Trip("civilview")
		time.Sleep(2 * cooldown)

		Expect(breaker.Allow("civilview")).To(BeTrue())
		breaker.Reset("civilview")

		Expect(breaker.Allow("civilview")).To(BeTrue())
		Expect(breaker.Allow("civilview")).To(BeTrue())
	})

	It("re-opens after a failed probe", func() {
		breaker := ingest.NewBreaker(cooldown)
		breaker.Trip("civilview")
		time.Sleep(2 * cooldown)

		Expect(breaker.Allow("civilview")).To(BeTrue())
		breaker.Fail("civilview")

		Expect(breaker.Allow("civilview")).To(BeFalse())
	})

	It("ignores failures while the circuit is closed", func() {
		breaker := ingest.NewBreaker(cooldown)
		breaker.Fail("civilview")
		Expect(breaker.Allow("civilview")).To(BeTrue())
	})
})
