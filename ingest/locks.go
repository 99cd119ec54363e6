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

	"github.com/alphadose/haxmap"
)

// keyLocks serializes upserts per dedupe key so two adapters reporting the
// same property cannot interleave their merge steps.
type keyLocks struct {
	locks *haxmap.Map[string, *sync.Mutex]
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: haxmap.New[string, *sync.Mutex]()}
}

func (kl *keyLocks) lock(key string) func() {
	mu, _ := kl.locks.GetOrSet(key, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}
