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
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/queue"
	"github.com/AleutianAI/gridsheet/services/grid/telemetry"
)

// DiagnosticView is the JSON form of a dispatch diagnostic.
type DiagnosticView struct {
	Level   string `json:"level"`
	Event   string `json:"event"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// EventResponse is the JSON form of a dispatch outcome.
type EventResponse struct {
	Handled     []string         `json:"handled"`
	Applied     int              `json:"applied"`
	Truncated   bool             `json:"truncated"`
	Revision    uint64           `json:"revision"`
	Diagnostics []DiagnosticView `json:"diagnostics"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewEventResponse converts an outcome for the wire.
func NewEventResponse(out dispatch.Outcome) EventResponse {
	resp := EventResponse{
		Handled:     make([]string, 0, len(out.Handled)),
		Applied:     out.Applied,
		Truncated:   out.Truncated,
		Revision:    out.Revision,
		Diagnostics: make([]DiagnosticView, 0, len(out.Diagnostics)),
	}
	for _, ev := range out.Handled {
		resp.Handled = append(resp.Handled, ev.String())
	}
	for _, d := range out.Diagnostics {
		view := DiagnosticView{Level: d.Level.String(), Message: d.Message}
		if d.Event != nil {
			view.Event = d.Event.String()
		}
		if d.Err != nil {
			view.Error = d.Err.Error()
		}
		resp.Diagnostics = append(resp.Diagnostics, view)
	}
	return resp
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.queue.Snapshot())
}

func (s *Server) handleEvent(c *gin.Context) {
	var env event.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		s.metrics.RejectedTotal.WithLabelValues("http").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed envelope: " + err.Error()})
		return
	}
	ev, err := env.Decode()
	if err != nil {
		s.metrics.RejectedTotal.WithLabelValues("http").Inc()
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	out, err := s.submit(ctx, ev)
	if err != nil {
		c.JSON(statusFor(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, NewEventResponse(out))
}

func (s *Server) submit(ctx context.Context, ev event.Event) (dispatch.Outcome, error) {
	out, err := s.queue.Submit(ctx, ev)
	if err != nil {
		telemetry.RecordError(trace.SpanFromContext(ctx), err)
		telemetry.LoggerWithTrace(ctx, s.logger).Warn("event submission failed",
			"event", ev.String(), "error", err)
		return out, err
	}
	return out, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
