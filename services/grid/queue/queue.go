// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package queue serialises access to one grid for hosts with concurrent
// producers.
//
// The grid model and dispatcher are single-threaded. A Queue owns the grid
// inside its Run goroutine; every event and every direct mutation is applied
// there, one at a time, in submission order. Readers get deep-copy snapshots
// and never touch the grid itself.
//
// # Usage
//
//	q := queue.New(grid, dispatch.New())
//	go q.Run(ctx)
//	out, err := q.Submit(ctx, event.AddRowRequested{})
//
// # Thread Safety
//
// All exported methods are safe for concurrent use.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/model"
)

var (
	// ErrClosed is returned by Submit and Apply once Run has returned.
	ErrClosed = errors.New("queue: closed")

	// ErrAlreadyRunning is returned by a second concurrent Run call.
	ErrAlreadyRunning = errors.New("queue: already running")
)

// DefaultBacklog is the number of pending requests buffered before Submit blocks.
const DefaultBacklog = 64

type request struct {
	ctx   context.Context
	ev    event.Event
	apply func(*model.Grid)
	reply chan dispatch.Outcome
}

// Queue is the single writer for one grid.
type Queue struct {
	grid       *model.Grid
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger

	requests chan request
	done     chan struct{}
	closed   chan struct{}

	mu       sync.Mutex
	running  bool
	finished bool

	snapMu   sync.RWMutex
	snapshot model.Snapshot

	subMu sync.RWMutex
	subs  map[string]chan model.Snapshot
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the queue logger. Default: logging.Discard().
func WithLogger(l *logging.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithBacklog sets the request buffer size.
func WithBacklog(n int) Option {
	return func(q *Queue) {
		if n >= 0 {
			q.requests = make(chan request, n)
		}
	}
}

// New creates a Queue that takes ownership of g. The caller must not use g
// after this call.
func New(g *model.Grid, d *dispatch.Dispatcher, opts ...Option) *Queue {
	if d == nil {
		d = dispatch.New()
	}
	q := &Queue{
		grid:       g,
		dispatcher: d,
		logger:     logging.Discard(),
		requests:   make(chan request, DefaultBacklog),
		done:       make(chan struct{}),
		closed:     make(chan struct{}),
		snapshot:   g.Snapshot(),
		subs:       make(map[string]chan model.Snapshot),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Run applies requests until ctx is canceled or Close is called. It returns
// nil on either, and ErrAlreadyRunning or ErrClosed when misused.
func (q *Queue) Run(ctx context.Context) error {
	q.mu.Lock()
	switch {
	case q.finished:
		q.mu.Unlock()
		return ErrClosed
	case q.running:
		q.mu.Unlock()
		return ErrAlreadyRunning
	}
	q.running = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.running = false
		q.finished = true
		q.mu.Unlock()
		close(q.closed)
		q.closeSubscribers()
	}()

	q.logger.Info("grid queue started", "grid_id", q.grid.ID().String())
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("grid queue stopped", "reason", ctx.Err().Error())
			return nil
		case <-q.done:
			q.logger.Info("grid queue stopped", "reason", "closed")
			return nil
		case req := <-q.requests:
			q.handle(req)
		}
	}
}

func (q *Queue) handle(req request) {
	before := q.grid.Revision()
	var out dispatch.Outcome
	if req.apply != nil {
		req.apply(q.grid)
		out.Revision = q.grid.Revision()
	} else {
		out = q.dispatcher.Dispatch(req.ctx, q.grid, req.ev)
	}
	if q.grid.Revision() != before {
		q.publish(q.grid.Snapshot())
	}
	req.reply <- out
}

// Submit dispatches ev on the owner goroutine and waits for its outcome.
//
// # Outputs
//
//   - dispatch.Outcome: What the dispatcher did, including diagnostics.
//   - error: ctx.Err() if ctx ends first, ErrClosed if the queue stopped.
//
// Cancelling ctx after the request is queued does not withdraw it.
func (q *Queue) Submit(ctx context.Context, ev event.Event) (dispatch.Outcome, error) {
	return q.send(ctx, request{ctx: context.WithoutCancel(ctx), ev: ev})
}

// Apply runs fn against the grid on the owner goroutine. fn must not retain
// the grid.
func (q *Queue) Apply(ctx context.Context, fn func(*model.Grid)) error {
	if fn == nil {
		return nil
	}
	_, err := q.send(ctx, request{apply: fn})
	return err
}

func (q *Queue) send(ctx context.Context, req request) (dispatch.Outcome, error) {
	req.reply = make(chan dispatch.Outcome, 1)
	select {
	case <-q.closed:
		return dispatch.Outcome{}, ErrClosed
	default:
	}
	select {
	case q.requests <- req:
	case <-ctx.Done():
		return dispatch.Outcome{}, ctx.Err()
	case <-q.closed:
		return dispatch.Outcome{}, ErrClosed
	}
	select {
	case out := <-req.reply:
		return out, nil
	case <-ctx.Done():
		return dispatch.Outcome{}, ctx.Err()
	case <-q.closed:
		select {
		case out := <-req.reply:
			return out, nil
		default:
			return dispatch.Outcome{}, ErrClosed
		}
	}
}

// Snapshot returns the most recently published snapshot.
func (q *Queue) Snapshot() model.Snapshot {
	q.snapMu.RLock()
	defer q.snapMu.RUnlock()
	return q.snapshot
}

// Subscribe registers for snapshots published after each mutation.
//
// # Outputs
//
//   - string: Subscription ID for Unsubscribe.
//   - <-chan model.Snapshot: Receives new snapshots. Holds only the latest
//     when the reader falls behind. Closed on Unsubscribe or when Run returns.
func (q *Queue) Subscribe() (string, <-chan model.Snapshot) {
	ch := make(chan model.Snapshot, 1)
	id := uuid.NewString()

	q.subMu.Lock()
	defer q.subMu.Unlock()
	select {
	case <-q.closed:
		close(ch)
		return id, ch
	default:
	}
	q.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscription. It reports whether id was registered.
func (q *Queue) Unsubscribe(id string) bool {
	q.subMu.Lock()
	defer q.subMu.Unlock()
	ch, ok := q.subs[id]
	if ok {
		delete(q.subs, id)
		close(ch)
	}
	return ok
}

// Close stops Run. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

// Done is closed once Run has returned.
func (q *Queue) Done() <-chan struct{} { return q.closed }

func (q *Queue) publish(s model.Snapshot) {
	q.snapMu.Lock()
	q.snapshot = s
	q.snapMu.Unlock()

	q.subMu.RLock()
	defer q.subMu.RUnlock()
	for _, ch := range q.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}

func (q *Queue) closeSubscribers() {
	q.subMu.Lock()
	defer q.subMu.Unlock()
	for id, ch := range q.subs {
		close(ch)
		delete(q.subs, id)
	}
}
