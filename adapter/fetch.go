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
package adapter

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

const (
	listTimeout   = 15 * time.Second
	detailTimeout = 5 * time.Second

	detailBatchSize  = 5
	detailBatchDelay = 200 * time.Millisecond
)

// ErrTransient marks a failure worth retrying: connection resets, timeouts,
// and 5xx-class responses.
var ErrTransient = errors.New("transient fetch failure")

// backoffSchedule for transient failures; each delay gets up to 25% jitter
// so retries from multiple adapters don't align.
var backoffSchedule = []time.Duration{2 * time.Second, 10 * time.Second, 60 * time.Second}

// retryTransient runs fn, retrying on ErrTransient per the backoff
// schedule. Non-transient errors and context cancellation return
// immediately.
func retryTransient(ctx context.Context, logger zerolog.Logger, fn func() error) error {
	var err error

	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrTransient) {
			return err
		}

		if attempt >= len(backoffSchedule) {
			return err
		}

		delay := backoffSchedule[attempt]
		delay += time.Duration(rand.Int63n(int64(delay / 4)))

		logger.Warn().Err(err).Int("Attempt", attempt+1).Dur("Backoff", delay).
			Msg("transient fetch failure, backing off")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
