// frcurate: curation of functional-role annotation calls.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/exascience/frcurate/blob/master/LICENSE.txt>.

package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects counters for one run. The registry is private to
// the run, so the result can be written as a node exporter textfile.
type Metrics struct {
	registry       *prometheus.Registry
	Sources        *prometheus.CounterVec
	Rows           *prometheus.CounterVec
	SourceDuration prometheus.Histogram
	LastRun        prometheus.Gauge
}

// NewMetrics creates the metrics for the run with the given id.
func NewMetrics(runID string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"run": runID}
	return &Metrics{
		registry: registry,
		Sources: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "frcurate_sources_total",
			Help:        "Annotation tables processed, by terminal status",
			ConstLabels: labels,
		}, []string{"status"}),
		Rows: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "frcurate_rows_total",
			Help:        "Annotation records, by partition",
			ConstLabels: labels,
		}, []string{"partition"}),
		SourceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:        "frcurate_source_duration_seconds",
			Help:        "Time to load, filter and write one annotation table",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "frcurate_last_run_timestamp_seconds",
			Help:        "Unix time at which the run finished",
			ConstLabels: labels,
		}),
	}
}

func (m *Metrics) observeSource(outcome *Outcome) {
	if m == nil {
		return
	}
	m.Sources.WithLabelValues(outcome.Status.String()).Inc()
	m.Rows.WithLabelValues("passing").Add(float64(outcome.PassingRows))
	m.Rows.WithLabelValues("non-passing").Add(float64(outcome.NonPassingRows))
	m.SourceDuration.Observe(outcome.Duration.Seconds())
}

func (m *Metrics) observeRun() {
	if m == nil {
		return
	}
	m.LastRun.SetToCurrentTime()
}

// Gatherer returns the registry holding the metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes the metrics in the text exposition format.
func (m *Metrics) WriteToTextfile(filename string) error {
	return prometheus.WriteToTextfile(filename, m.registry)
}
