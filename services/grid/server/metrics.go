// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of a Server.
type Metrics struct {
	// WSConnections is the number of open websocket sessions.
	WSConnections prometheus.Gauge

	// WSPushesTotal counts snapshots pushed over websockets.
	WSPushesTotal prometheus.Counter

	// RejectedTotal counts envelopes rejected before dispatch, by transport.
	RejectedTotal *prometheus.CounterVec
}

// NewMetrics creates the server metrics and registers them with reg.
// Nil selects prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		WSConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gridsheet",
			Subsystem: "server",
			Name:      "ws_connections",
			Help:      "Open websocket sessions",
		}),
		WSPushesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "gridsheet",
			Subsystem: "server",
			Name:      "ws_pushes_total",
			Help:      "Snapshots pushed to websocket sessions",
		}),
		RejectedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridsheet",
			Subsystem: "server",
			Name:      "rejected_envelopes_total",
			Help:      "Event envelopes rejected before dispatch",
		}, []string{"transport"}),
	}
}
