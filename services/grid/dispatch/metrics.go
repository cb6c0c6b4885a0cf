// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace   = "gridsheet"
	dispatchSubsystem  = "dispatch"
	resultApplied      = "applied"
	resultEmitted      = "emitted"
	resultAcknowledged = "acknowledged"
	resultDropped      = "dropped"
)

// Metrics holds the Prometheus metrics of a Dispatcher.
//
// Thread Safety: Safe for concurrent use (Prometheus metrics are thread-safe).
type Metrics struct {
	// EventsTotal counts handled events by type and result.
	EventsTotal *prometheus.CounterVec

	// DiagnosticsTotal counts diagnostics by level.
	DiagnosticsTotal *prometheus.CounterVec

	// CascadeDepth observes how many events one Dispatch call handled.
	CascadeDepth prometheus.Histogram

	// CascadeTruncatedTotal counts Dispatch calls stopped by the cascade cap.
	CascadeTruncatedTotal prometheus.Counter

	// Rows is the row count after the latest dispatch.
	Rows prometheus.Gauge

	// Cells is the total cell count after the latest dispatch.
	Cells prometheus.Gauge
}

// NewMetrics creates the dispatcher metrics and registers them with reg.
//
// # Inputs
//
//   - reg: Registerer to use. Nil selects prometheus.DefaultRegisterer.
//
// # Outputs
//
//   - *Metrics: The created metrics. Never nil.
//
// Registering twice against the same registerer panics, as with promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "events_total",
				Help:      "Total handled grid events by type and result",
			},
			[]string{"type", "result"},
		),
		DiagnosticsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "diagnostics_total",
				Help:      "Total diagnostics raised by level",
			},
			[]string{"level"},
		),
		CascadeDepth: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "cascade_depth",
				Help:      "Events handled per Dispatch call, including re-emitted ones",
				Buckets:   []float64{1, 2, 3, 4, 8, 16, 32},
			},
		),
		CascadeTruncatedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: dispatchSubsystem,
				Name:      "cascade_truncated_total",
				Help:      "Dispatch calls stopped by the cascade limit",
			},
		),
		Rows: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "rows",
				Help:      "Number of rows in the grid",
			},
		),
		Cells: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "cells",
				Help:      "Number of cells across all rows of the grid",
			},
		),
	}
}
