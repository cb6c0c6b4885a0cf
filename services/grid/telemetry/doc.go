// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry bootstraps OpenTelemetry tracing and metrics for the
// gridsheet hosts.
//
// The dispatcher opens one span per Dispatch call and one child span per
// handled event through otel.Tracer. Until Init installs a provider those
// spans are no-ops, so the model and dispatcher never depend on this package.
//
// # Exporters
//
//   - Traces: "otlp" (gRPC), "stdout", or "none"
//   - Metrics: "prometheus", "stdout", or "none"
//
// # Environment Variables
//
//   - GRIDSHEET_ENV: deployment environment (default: development)
//   - OTEL_TRACES_EXPORTER: trace exporter (default: none)
//   - OTEL_METRICS_EXPORTER: metric exporter (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//
// The TUI keeps both exporters off by default because stdout belongs to the
// terminal renderer there.
package telemetry
