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
package normalize

import (
	"strings"

	"github.com/foreclosurewatch/fwdata/data"
)

// stageRule keyword sets are checked in priority order. REO outranks the
// sheriff keywords so "Scheduled for REO resale" classifies as REO, not as
// a scheduled sheriff sale.
type stageRule struct {
	stage    data.Stage
	keywords []string
}

var stageRules = []stageRule{
	{data.StageREO, []string{"reo", "bank owned", "resale"}},
	{data.StageAuction, []string{"auction", "trustee", "bid4assets", "xome"}},
	{data.StageSheriffSale, []string{"sheriff", "scheduled", "set for sale", "adjourned"}},
	{data.StagePreForeclosure, []string{"lis pendens", "nod", "pre-foreclosure"}},
}

// InferStage classifies a listing from its stage hint and status text.
func InferStage(stageHint, statusText string) data.Stage {
	combined := strings.ToLower(stageHint + " " + statusText)

	for _, rule := range stageRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(combined, keyword) {
				return rule.stage
			}
		}
	}

	return data.StageUnknown
}
