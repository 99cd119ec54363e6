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
package ingest

import (
	"sync"
	"time"

	"github.com/alphadose/haxmap"
)

// DefaultCooldown is how long a tripped adapter stays dark before one probe
// request is let through (circuit.cooldown).
const DefaultCooldown = time.Hour

type breakerState struct {
	mu        sync.Mutex
	trippedAt time.Time
	probing   bool
}

// Breaker is a per-adapter circuit breaker. A tripped adapter is skipped for
// the cooldown period; after that a single half-open probe is admitted, and
// its outcome either closes the circuit or trips it again.
type Breaker struct {
	cooldown time.Duration
	states   *haxmap.Map[string, *breakerState]
	clock    func() time.Time
}

func NewBreaker(cooldown time.Duration) *Breaker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &Breaker{
		cooldown: cooldown,
		states:   haxmap.New[string, *breakerState](),
		clock:    time.Now,
	}
}

// Allow reports whether the adapter may run now. At most one caller gets the
// half-open probe per cooldown expiry.
func (breaker *Breaker) Allow(adapterID string) bool {
	state, _ := breaker.states.GetOrSet(adapterID, &breakerState{})

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.trippedAt.IsZero() {
		return true
	}

	if breaker.clock().Sub(state.trippedAt) < breaker.cooldown {
		return false
	}

	if state.probing {
		return false
	}
	state.probing = true

	return true
}

// Trip opens the circuit for the adapter.
func (breaker *Breaker) Trip(adapterID string) {
	state, _ := breaker.states.GetOrSet(adapterID, &breakerState{})

	state.mu.Lock()
	defer state.mu.Unlock()

	state.trippedAt = breaker.clock()
	state.probing = false
}

// Fail marks a failed run. A closed circuit stays closed (search failures
// alone do not trip it), but a failed half-open probe re-opens it for
// another cooldown.
func (breaker *Breaker) Fail(adapterID string) {
	state, _ := breaker.states.GetOrSet(adapterID, &breakerState{})

	state.mu.Lock()
	defer state.mu.Unlock()

	if !state.trippedAt.IsZero() {
		state.trippedAt = breaker.clock()
		state.probing = false
	}
}

// Reset closes the circuit after a healthy run.
func (breaker *Breaker) Reset(adapterID string) {
	state, _ := breaker.states.GetOrSet(adapterID, &breakerState{})

	state.mu.Lock()
	defer state.mu.Unlock()

	state.trippedAt = time.Time{}
	state.probing = false
}
