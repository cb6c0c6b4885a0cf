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
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/model"
)

// WebSocket message types sent by the server.
const (
	MessageSession  = "session"
	MessageSnapshot = "snapshot"
	MessageOutcome  = "outcome"
	MessageError    = "error"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsMaxMessage   = 64 * 1024
)

// WSMessage is every frame the server writes to a websocket.
type WSMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Snapshot  *model.Snapshot `json:"snapshot,omitempty"`
	Outcome   *EventResponse  `json:"outcome,omitempty"`
	Error     string          `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
}

// wsSession serialises writes to one connection; gorilla allows a single
// concurrent writer.
type wsSession struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (ws *wsSession) send(msg WSMessage) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	_ = ws.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return ws.conn.WriteJSON(msg)
}

// handleWebSocket pushes a snapshot on connect and after every revision
// change, at most PushRate per second, and dispatches envelopes it reads.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade the websocket", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsMaxMessage)

	ws := &wsSession{id: uuid.New().String(), conn: conn}
	logger := s.logger.With("session_id", ws.id)
	logger.Info("websocket session started")
	s.metrics.WSConnections.Inc()
	defer s.metrics.WSConnections.Dec()

	subID, updates := s.queue.Subscribe()
	defer s.queue.Unsubscribe(subID)

	if err := ws.send(WSMessage{Type: MessageSession, SessionID: ws.id}); err != nil {
		return
	}
	snap := s.queue.Snapshot()
	if err := ws.send(WSMessage{Type: MessageSnapshot, Snapshot: &snap}); err != nil {
		return
	}
	s.metrics.WSPushesTotal.Inc()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		s.pushLoop(ctx, ws, updates, snap.Revision)
	}()

	s.readLoop(ctx, ws)
	cancel()
	wg.Wait()
	logger.Info("websocket session ended")
}

func (s *Server) readLoop(ctx context.Context, ws *wsSession) {
	go func() {
		<-ctx.Done()
		_ = ws.conn.SetReadDeadline(time.Now())
	}()
	for {
		var env event.Envelope
		if err := ws.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && ctx.Err() == nil {
				s.logger.Debug("websocket read failed", "session_id", ws.id, "error", err)
			}
			return
		}
		ev, err := env.Decode()
		if err != nil {
			s.metrics.RejectedTotal.WithLabelValues("ws").Inc()
			if ws.send(WSMessage{Type: MessageError, Error: err.Error()}) != nil {
				return
			}
			continue
		}
		out, err := s.submit(ctx, ev)
		if err != nil {
			_ = ws.send(WSMessage{Type: MessageError, Error: err.Error()})
			return
		}
		resp := NewEventResponse(out)
		if ws.send(WSMessage{Type: MessageOutcome, Outcome: &resp}) != nil {
			return
		}
	}
}

func (s *Server) pushLoop(ctx context.Context, ws *wsSession, updates <-chan model.Snapshot, sent uint64) {
	limiter := rate.NewLimiter(rate.Limit(s.config.PushRate), s.config.PushBurst)
	for {
		var snap model.Snapshot
		select {
		case <-ctx.Done():
			return
		case next, ok := <-updates:
			if !ok {
				return
			}
			snap = next
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		// Prefer whatever arrived while waiting on the limiter.
		select {
		case next, ok := <-updates:
			if !ok {
				return
			}
			snap = next
		default:
		}
		if snap.Revision <= sent {
			continue
		}
		if err := ws.send(WSMessage{Type: MessageSnapshot, Snapshot: &snap}); err != nil {
			return
		}
		sent = snap.Revision
		s.metrics.WSPushesTotal.Inc()
	}
}
