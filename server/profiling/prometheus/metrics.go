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

// Package prometheus provides a Prometheus metrics exporter.
package prometheus

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/teampulse/teampulse/internal/version"
)

const (
	namespace      = "teampulse"
	scopeLabel     = "scope"
	categoryLabel  = "category"
	reasonLabel    = "reason"
	scopeKindLabel = "scope_kind"
)

// Metrics manages the metric information that TeamPulse is trying to measure.
type Metrics struct {
	registry *prometheus.Registry

	serverVersion *prometheus.GaugeVec

	feedQueriesTotal       *prometheus.CounterVec
	feedResponseSeconds    prometheus.Histogram
	updatesCreatedTotal    *prometheus.CounterVec
	updatesDeletedTotal    *prometheus.CounterVec
	reactionsTotal         prometheus.Counter
	invitesCreatedTotal    *prometheus.CounterVec
	invitesClosedTotal     *prometheus.CounterVec
	sharesResolvedTotal    prometheus.Counter
	housekeepingRunSeconds prometheus.Histogram
}

// NewMetrics creates a new instance of Metrics.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("register process collector: %w", err)
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("register go collector: %w", err)
	}

	metrics := &Metrics{
		registry: reg,
		serverVersion: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "server",
			Name:      "version",
			Help:      "Which version is running. 1 for 'server_version' label with current version.",
		}, []string{"server_version"}),
		feedQueriesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "queries_total",
			Help:      "Total number of feed pages served.",
		}, []string{scopeLabel}),
		feedResponseSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "response_seconds",
			Help:      "The response time of serving a feed page.",
		}),
		updatesCreatedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updates",
			Name:      "created_total",
			Help:      "Total number of status updates created.",
		}, []string{categoryLabel}),
		updatesDeletedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updates",
			Name:      "deleted_total",
			Help:      "Total number of status updates deleted, including cascades.",
		}, []string{reasonLabel}),
		reactionsTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "updates",
			Name:      "reactions_total",
			Help:      "Total number of reactions added.",
		}),
		invitesCreatedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invites",
			Name:      "created_total",
			Help:      "Total number of invites created.",
		}, []string{scopeKindLabel}),
		invitesClosedTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invites",
			Name:      "closed_total",
			Help:      "Total number of invites leaving the pending state.",
		}, []string{reasonLabel}),
		sharesResolvedTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "shares",
			Name:      "resolved_total",
			Help:      "Total number of public share resolutions.",
		}),
		housekeepingRunSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "housekeeping",
			Name:      "run_seconds",
			Help:      "The time spent on a housekeeping run.",
		}),
	}

	metrics.serverVersion.With(prometheus.Labels{
		"server_version": version.Version,
	}).Set(1)

	return metrics, nil
}

// ObserveFeedQuery adds a feed page to the counters with its response time.
func (m *Metrics) ObserveFeedQuery(scope string, seconds float64) {
	m.feedQueriesTotal.With(prometheus.Labels{scopeLabel: scope}).Inc()
	m.feedResponseSeconds.Observe(seconds)
}

// AddUpdatesCreated adds the number of created updates per category.
func (m *Metrics) AddUpdatesCreated(category string) {
	m.updatesCreatedTotal.With(prometheus.Labels{categoryLabel: category}).Inc()
}

// AddUpdatesDeleted adds the number of deleted updates for the given reason.
func (m *Metrics) AddUpdatesDeleted(reason string, count int64) {
	m.updatesDeletedTotal.With(prometheus.Labels{reasonLabel: reason}).Add(float64(count))
}

// AddReaction adds a reaction event.
func (m *Metrics) AddReaction() {
	m.reactionsTotal.Inc()
}

// AddInviteCreated adds a created invite for the given scope kind.
func (m *Metrics) AddInviteCreated(scopeKind string) {
	m.invitesCreatedTotal.With(prometheus.Labels{scopeKindLabel: scopeKind}).Inc()
}

// AddInvitesClosed adds invites leaving pending for the given reason.
func (m *Metrics) AddInvitesClosed(reason string, count int) {
	m.invitesClosedTotal.With(prometheus.Labels{reasonLabel: reason}).Add(float64(count))
}

// AddShareResolved adds a public share resolution.
func (m *Metrics) AddShareResolved() {
	m.sharesResolvedTotal.Inc()
}

// ObserveHousekeepingRun observes the time spent on a housekeeping run.
func (m *Metrics) ObserveHousekeepingRun(seconds float64) {
	m.housekeepingRunSeconds.Observe(seconds)
}

// Registry returns the registry of this metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
