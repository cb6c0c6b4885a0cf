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
	"context"
	"fmt"
	"sync"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/event"
)

// Diagnostic is a side-channel notification about an event that was
// acknowledged, ignored or dropped. Diagnostics are never surfaced to the
// end user as errors; a host may show them in a status line.
type Diagnostic struct {
	// Level is the severity.
	Level logging.Level

	// Event is the event being handled when the diagnostic was raised.
	Event event.Event

	// Message is a short human-readable description.
	Message string

	// Err is the underlying model error, if any.
	Err error
}

// String renders the diagnostic for status lines.
func (d Diagnostic) String() string {
	if d.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", d.Event, d.Message, d.Err)
	}
	return fmt.Sprintf("%s: %s", d.Event, d.Message)
}

// DiagnosticSink receives diagnostics as they are raised.
type DiagnosticSink interface {
	Notify(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to DiagnosticSink.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Notify implements DiagnosticSink.
func (f SinkFunc) Notify(ctx context.Context, d Diagnostic) { f(ctx, d) }

// LogSink writes diagnostics to a structured logger.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink that logs through logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements DiagnosticSink.
func (s *LogSink) Notify(_ context.Context, d Diagnostic) {
	args := []any{"event", d.Event.String(), "event_type", string(d.Event.Type())}
	if d.Err != nil {
		args = append(args, "error", d.Err)
	}
	switch d.Level {
	case logging.LevelDebug:
		s.logger.Debug(d.Message, args...)
	case logging.LevelWarn:
		s.logger.Warn(d.Message, args...)
	case logging.LevelError:
		s.logger.Error(d.Message, args...)
	default:
		s.logger.Info(d.Message, args...)
	}
}

// Recorder is a sink that keeps diagnostics in memory.
type Recorder struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Notify implements DiagnosticSink.
func (r *Recorder) Notify(_ context.Context, d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of the recorded diagnostics.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Reset discards the recorded diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = nil
}

type multiSink []DiagnosticSink

func (m multiSink) Notify(ctx context.Context, d Diagnostic) {
	for _, s := range m {
		s.Notify(ctx, d)
	}
}

// Tee returns a sink that forwards to every non-nil sink in order.
func Tee(sinks ...DiagnosticSink) DiagnosticSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
