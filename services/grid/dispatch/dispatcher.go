// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dispatch translates grid events into grid mutations.
//
// # Description
//
// The Dispatcher is a pure function of (grid, event): it mutates the grid
// and returns the events the handled event re-emits. It keeps no state of
// its own beyond configuration. Every operation is total: invalid indices,
// non-interactive cells and panicking callbacks become no-ops plus a
// Diagnostic, never an error returned to the host.
//
// # Thread Safety
//
// A Dispatcher may be shared, but the Grid it is applied to must only be
// touched by one goroutine at a time.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/model"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxCascade bounds the events one Dispatch call may handle.
const DefaultMaxCascade = 16

var tracer = otel.Tracer("gridsheet.dispatch")

// Result is the outcome of handling a single event.
type Result struct {
	// Applied reports whether the grid was mutated.
	Applied bool

	// Emitted are the events raised by the handled event, in order.
	Emitted []event.Event

	// Diagnostics raised while handling the event.
	Diagnostics []Diagnostic
}

// Outcome is the outcome of a Dispatch call, which drains re-emitted events.
type Outcome struct {
	// Handled lists every event handled, starting with the dispatched one.
	Handled []event.Event `json:"-"`

	// Applied is the number of handled events that mutated the grid.
	Applied int `json:"applied"`

	// Diagnostics raised across the whole cascade.
	Diagnostics []Diagnostic `json:"-"`

	// Truncated reports that the cascade limit stopped the drain.
	Truncated bool `json:"truncated"`

	// Revision is the grid revision after the cascade.
	Revision uint64 `json:"revision"`
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSink sets the diagnostic sink. Nil discards diagnostics.
func WithSink(sink DiagnosticSink) Option {
	return func(d *Dispatcher) { d.sink = sink }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// WithMaxCascade sets the cascade limit. Values below 1 keep the default.
func WithMaxCascade(n int) Option {
	return func(d *Dispatcher) {
		if n >= 1 {
			d.maxCascade = n
		}
	}
}

// Dispatcher maps events to grid mutations.
type Dispatcher struct {
	sink       DiagnosticSink
	metrics    *Metrics
	maxCascade int
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{maxCascade: DefaultMaxCascade}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// MaxCascade returns the configured cascade limit.
func (d *Dispatcher) MaxCascade() int { return d.maxCascade }

// Dispatch handles ev and every event it re-emits, breadth first.
//
// # Description
//
// Re-emitted events are handled in the order they were raised until none
// remain or MaxCascade events have been handled. Hitting the limit raises
// a warning diagnostic and drops the remaining events.
//
// # Inputs
//
//   - ctx: Context carrying the trace span of the host update.
//   - g: Grid to mutate.
//   - ev: Event delivered by the host.
//
// # Outputs
//
//   - Outcome: What was handled and raised. Never an error.
func (d *Dispatcher) Dispatch(ctx context.Context, g *model.Grid, ev event.Event) Outcome {
	if ev == nil {
		return Outcome{Revision: g.Revision()}
	}
	ctx, span := tracer.Start(ctx, "Dispatcher.Dispatch",
		trace.WithAttributes(attribute.String("grid.event", string(ev.Type()))),
	)
	defer span.End()

	var out Outcome
	queue := []event.Event{ev}
	for len(queue) > 0 {
		if len(out.Handled) >= d.maxCascade {
			out.Truncated = true
			diag := Diagnostic{
				Level:   logging.LevelWarn,
				Event:   queue[0],
				Message: fmt.Sprintf("cascade limit %d reached, dropping %d event(s)", d.maxCascade, len(queue)),
			}
			d.notify(ctx, diag)
			out.Diagnostics = append(out.Diagnostics, diag)
			if d.metrics != nil {
				d.metrics.CascadeTruncatedTotal.Inc()
			}
			break
		}

		next := queue[0]
		queue = queue[1:]

		res := d.Handle(ctx, g, next)
		out.Handled = append(out.Handled, next)
		if res.Applied {
			out.Applied++
		}
		out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
		queue = append(queue, res.Emitted...)
	}
	out.Revision = g.Revision()

	span.SetAttributes(
		attribute.Int("grid.cascade", len(out.Handled)),
		attribute.Int("grid.applied", out.Applied),
		attribute.Bool("grid.truncated", out.Truncated),
	)
	if d.metrics != nil {
		d.metrics.CascadeDepth.Observe(float64(len(out.Handled)))
		d.observeGrid(g)
	}
	return out
}

// Handle handles a single event without draining what it emits.
func (d *Dispatcher) Handle(ctx context.Context, g *model.Grid, ev event.Event) Result {
	if ev == nil {
		return Result{}
	}
	ctx, span := tracer.Start(ctx, "Dispatcher.Handle",
		trace.WithAttributes(attribute.String("grid.event", string(ev.Type()))),
	)
	defer span.End()

	h := handling{ctx: ctx, d: d, ev: ev}
	switch e := ev.(type) {
	case event.AddRowRequested:
		h.addRow(g)
	case event.AddCellRequested:
		h.addCell(g, e)
	case event.CellActivated:
		h.activate(g, e)
	case event.CellEdited:
		h.edit(g, e)
	case event.ScrollOffsetChanged:
		h.scroll(g, e)
	case event.SyncRequested:
		h.diag(logging.LevelDebug, "sync acknowledged", nil)
	default:
		h.diag(logging.LevelWarn, "unhandled event type", nil)
	}

	result := h.outcome()
	span.SetAttributes(
		attribute.String("grid.result", result),
		attribute.Int("grid.emitted", len(h.res.Emitted)),
	)
	if h.failed != nil {
		span.RecordError(h.failed)
		span.SetStatus(codes.Error, h.failed.Error())
	}
	if d.metrics != nil {
		d.metrics.EventsTotal.WithLabelValues(string(ev.Type()), result).Inc()
	}
	return h.res
}

// handling collects the result of one Handle call.
type handling struct {
	ctx    context.Context
	d      *Dispatcher
	ev     event.Event
	res    Result
	failed error
}

func (h *handling) outcome() string {
	switch {
	case h.failed != nil:
		return resultDropped
	case h.res.Applied:
		return resultApplied
	case len(h.res.Emitted) > 0:
		return resultEmitted
	default:
		return resultAcknowledged
	}
}

func (h *handling) diag(level logging.Level, msg string, err error) {
	d := Diagnostic{Level: level, Event: h.ev, Message: msg, Err: err}
	h.res.Diagnostics = append(h.res.Diagnostics, d)
	h.d.notify(h.ctx, d)
}

func (h *handling) drop(msg string, err error) {
	h.failed = err
	h.diag(logging.LevelWarn, msg, err)
}

func (h *handling) emit(evs ...event.Event) {
	h.res.Emitted = append(h.res.Emitted, evs...)
}

func (h *handling) addRow(g *model.Grid) {
	g.AddRow(model.DefaultRow(g.RowCount()))
	h.res.Applied = true
}

func (h *handling) addCell(g *model.Grid, e event.AddCellRequested) {
	row, ok := g.GetRowMut(e.Row)
	if !ok {
		h.drop("ignoring add-cell for stale row", fmt.Errorf("%w: row %d (grid has %d)",
			model.ErrRowNotFound, e.Row, g.RowCount()))
		return
	}
	if _, err := row.Push(model.Text(model.NewCellLabel(e.Row, row.DataCells()))); err != nil {
		h.drop("ignoring add-cell for stale row", err)
		return
	}
	h.res.Applied = true
}

func (h *handling) activate(g *model.Grid, e event.CellActivated) {
	cell, ok := g.GetCell(e.Row, e.Cell)
	if !ok {
		h.drop("ignoring activation of missing cell", cellNotFound(g, e.Row, e.Cell))
		return
	}
	switch cell.Action() {
	case model.ActionAddRow:
		h.emit(event.AddRowRequested{})
	case model.ActionAddCell:
		h.emit(event.AddCellRequested{Row: e.Row})
	default:
		h.diag(logging.LevelDebug, fmt.Sprintf("activated %s cell %q has no action", cell.Kind(), cell.Label()), nil)
	}
}

func (h *handling) edit(g *model.Grid, e event.CellEdited) {
	cell, ok := g.GetCell(e.Row, e.Cell)
	if !ok {
		h.drop("ignoring edit of missing cell", cellNotFound(g, e.Row, e.Cell))
		return
	}
	if cell.Kind() != model.KindText {
		h.drop("ignoring edit of non-text cell", fmt.Errorf("%w: %s cell", ErrNotEditable, cell.Kind()))
		return
	}
	if cell.Label() == e.Text {
		h.diag(logging.LevelDebug, "edit left cell unchanged", nil)
		return
	}
	if err := g.ReplaceCell(e.Row, e.Cell, model.Text(e.Text)); err != nil {
		h.drop("ignoring edit of missing cell", err)
		return
	}
	h.res.Applied = true
}

func (h *handling) scroll(g *model.Grid, e event.ScrollOffsetChanged) {
	onScroll := g.Config().OnScroll
	if onScroll == nil {
		h.diag(logging.LevelDebug, "scroll acknowledged", nil)
		return
	}
	evs, err := callScroll(onScroll, e.Offset)
	if err != nil {
		h.diag(logging.LevelError, "scroll callback failed", err)
		return
	}
	h.emit(evs...)
}

// callScroll invokes the host scroll callback, turning a panic into an error.
func callScroll(fn model.ScrollFunc, offset event.Offset) (evs []event.Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			evs, err = nil, fmt.Errorf("%w: %v", ErrCallbackPanic, r)
		}
	}()
	for _, ev := range fn(offset) {
		if ev != nil {
			evs = append(evs, ev)
		}
	}
	return evs, nil
}

func cellNotFound(g *model.Grid, row, cell int) error {
	n, ok := g.CellCount(row)
	if !ok {
		return fmt.Errorf("%w: %w: row %d (grid has %d)", model.ErrCellNotFound, model.ErrRowNotFound, row, g.RowCount())
	}
	return fmt.Errorf("%w: cell %d in row %d (row has %d)", model.ErrCellNotFound, cell, row, n)
}

func (d *Dispatcher) notify(ctx context.Context, diag Diagnostic) {
	if d.metrics != nil {
		d.metrics.DiagnosticsTotal.WithLabelValues(diag.Level.String()).Inc()
	}
	if d.sink != nil {
		d.sink.Notify(ctx, diag)
	}
}

func (d *Dispatcher) observeGrid(g *model.Grid) {
	cells := 0
	for r := 0; r < g.RowCount(); r++ {
		n, _ := g.CellCount(r)
		cells += n
	}
	d.metrics.Rows.Set(float64(g.RowCount()))
	d.metrics.Cells.Set(float64(cells))
}

var (
	// ErrNotEditable marks an edit aimed at a button or embedded cell.
	ErrNotEditable = errors.New("cell is not editable")

	// ErrCallbackPanic marks a panic recovered from a host callback.
	ErrCallbackPanic = errors.New("callback panicked")
)
