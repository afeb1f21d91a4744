/*
 * Copyright 2025 The TeamPulse Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package housekeeping provides the housekeeping service. The housekeeping
// service periodically sweeps pending invites whose expiry has passed.
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/teampulse/teampulse/server/backend/database"
	"github.com/teampulse/teampulse/server/logging"
	"github.com/teampulse/teampulse/server/profiling/prometheus"
)

// Housekeeping is the housekeeping service. It periodically runs housekeeping
// tasks.
type Housekeeping struct {
	database database.Database
	metrics  *prometheus.Metrics

	interval time.Duration

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// New creates a new housekeeping instance.
func New(
	conf *Config,
	database database.Database,
	metrics *prometheus.Metrics,
) (*Housekeeping, error) {
	interval, err := time.ParseDuration(conf.Interval)
	if err != nil {
		return nil, fmt.Errorf("parse interval %s: %w", conf.Interval, err)
	}

	ctx, cancelFunc := context.WithCancel(context.Background())

	return &Housekeeping{
		database: database,
		metrics:  metrics,

		interval: interval,

		ctx:        ctx,
		cancelFunc: cancelFunc,
	}, nil
}

// Start starts the housekeeping service.
func (h *Housekeeping) Start() error {
	go h.run()
	return nil
}

// Stop stops the housekeeping service.
func (h *Housekeeping) Stop() error {
	h.cancelFunc()

	return nil
}

// run is the housekeeping loop.
func (h *Housekeeping) run() {
	for {
		select {
		case <-time.After(h.interval):
		case <-h.ctx.Done():
			return
		}

		ctx := context.Background()
		if err := h.expireInvites(ctx); err != nil {
			logging.From(ctx).Error(err)
		}
	}
}

// expireInvites sweeps stale pending invites to expired.
func (h *Housekeeping) expireInvites(ctx context.Context) error {
	start := time.Now()

	count, err := h.database.ExpireInviteInfos(ctx, time.Now())
	if err != nil {
		return err
	}

	if count > 0 {
		logging.From(ctx).Infof(
			"HSKP: expired %d invites, %s",
			count,
			time.Since(start),
		)
	}

	if h.metrics != nil {
		h.metrics.AddInvitesClosed("expired", count)
		h.metrics.ObserveHousekeepingRun(time.Since(start).Seconds())
	}

	return nil
}
