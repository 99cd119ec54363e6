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

// Package adapter defines the per-source fetcher contract and the registry
// that maps (state, adapter id) to factories. Adapters are stateless across
// calls; a whole-page failure yields an empty batch, never a panic, so one
// dead source cannot abort an ingestion run.
package adapter

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/foreclosurewatch/fwdata/data"
)

// SearchParams is the normalized query an adapter receives.
type SearchParams struct {
	State  string
	County string
	City   string
	Zip    string

	MaxPrice *float64
	Stages   []data.Stage

	// FilePath points the manual-import adapter at its upload; remote
	// adapters ignore it.
	FilePath string
}

// Adapter fetches raw listings from one source. Search never mutates
// adapter state; all configuration is captured at construction.
type Adapter interface {
	ID() string
	Label() string
	SupportsState(code string) bool
	Search(ctx context.Context, params SearchParams) ([]*data.RawListing, error)
}

// Factory builds a configured adapter instance.
type Factory func() Adapter

// StateProfile carries the per-state knobs a new state must supply before
// its adapters can register: extra stage keywords, the equity floor below
// which listings are not worth surfacing, and how close a sale date must be
// to count as urgent.
type StateProfile struct {
	Code               string
	StageKeywords      map[string]data.Stage
	MinViableEquityPct float64
	UrgencyWindow      time.Duration
}

// Profiles is the state-profile registry. Only NJ ships filled in; the
// schema and dedupe keys already carry state so expansion is additive.
var Profiles = map[string]*StateProfile{
	"NJ": {
		Code: "NJ",
		StageKeywords: map[string]data.Stage{
			"sheriff's sale": data.StageSheriffSale,
			"writ of execution": data.StageSheriffSale,
			"final judgment": data.StagePreForeclosure,
		},
		MinViableEquityPct: -20,
		UrgencyWindow:      14 * 24 * time.Hour,
	},
}

// Registry maps (state, adapter id) to factories.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func registryKey(state, id string) string {
	return strings.ToUpper(state) + "|" + id
}

// Register installs a factory for a state and adapter id.
func (registry *Registry) Register(state, id string, factory Factory) {
	registry.factories[registryKey(state, id)] = factory
}

// Get returns the adapter registered for (state, id), or nil.
func (registry *Registry) Get(state, id string) Adapter {
	factory, ok := registry.factories[registryKey(state, id)]
	if !ok {
		return nil
	}
	return factory()
}

// ForState instantiates every adapter registered for a state whose
// SupportsState check passes, in stable id order.
func (registry *Registry) ForState(state string) []Adapter {
	prefix := strings.ToUpper(state) + "|"

	keys := make([]string, 0, len(registry.factories))
	for key := range registry.factories {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	adapters := make([]Adapter, 0, len(keys))
	for _, key := range keys {
		candidate := registry.factories[key]()
		if candidate.SupportsState(state) {
			adapters = append(adapters, candidate)
		}
	}

	return adapters
}

// Default is the process registry populated with the NJ adapters.
var Default = NewRegistry()

func init() {
	Default.Register("NJ", "civilview", func() Adapter { return NewCivilView() })
	Default.Register("NJ", "auctionhub", func() Adapter { return NewAuctionHub() })
	Default.Register("NJ", "manual-import", func() Adapter { return NewCSVImport() })
}
