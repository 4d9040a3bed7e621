/*
 * Copyright 2025 tomoncle.
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

package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/uptrace/bun"
)

// QueryMetricsConfig names the collectors registered by NewQueryMetrics.
type QueryMetricsConfig struct {
	Namespace string
	Subsystem string
	Buckets   []float64
}

func DefaultQueryMetricsConfig() QueryMetricsConfig {
	return QueryMetricsConfig{
		Namespace: "dynquery",
		Subsystem: "db",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}
}

// QueryMetrics holds the Prometheus collectors fed by MetricsHook.
type QueryMetrics struct {
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

// NewQueryMetrics registers the query collectors on reg. A nil reg uses the
// default registerer.
func NewQueryMetrics(reg prometheus.Registerer, cfg QueryMetricsConfig) *QueryMetrics {
	def := DefaultQueryMetricsConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = def.Namespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = def.Subsystem
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = def.Buckets
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &QueryMetrics{
		queriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "queries_total",
				Help:      "Total number of SQL statements executed.",
			},
			[]string{"operation", "status"},
		),
		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "query_duration_seconds",
				Help:      "SQL statement latency in seconds.",
				Buckets:   cfg.Buckets,
			},
			[]string{"operation"},
		),
	}
}

var (
	defaultQueryMetrics     *QueryMetrics
	defaultQueryMetricsOnce sync.Once
)

// DefaultQueryMetrics returns the process-wide collectors on the default registerer.
func DefaultQueryMetrics() *QueryMetrics {
	defaultQueryMetricsOnce.Do(func() {
		defaultQueryMetrics = NewQueryMetrics(nil, DefaultQueryMetricsConfig())
	})
	return defaultQueryMetrics
}

// MetricsHook records one counter increment and one latency observation per
// statement. sql.ErrNoRows counts as success.
type MetricsHook struct {
	metrics *QueryMetrics
}

var _ bun.QueryHook = (*MetricsHook)(nil)

func NewMetricsHook(m *QueryMetrics) *MetricsHook {
	return &MetricsHook{metrics: m}
}

func (h *MetricsHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *MetricsHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	op := event.Operation()
	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	h.metrics.queriesTotal.WithLabelValues(op, status).Inc()
	h.metrics.queryDuration.WithLabelValues(op).Observe(time.Since(event.StartTime).Seconds())
}
