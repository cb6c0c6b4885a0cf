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
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/model"
	"github.com/AleutianAI/gridsheet/services/grid/queue"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	server *Server
	queue  *queue.Queue
	reg    *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	g := model.New(model.DefaultConfig(), model.DefaultRow(0))
	q := queue.New(g, dispatch.New(dispatch.WithMetrics(dispatch.NewMetrics(reg))))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	cfg := DefaultConfig()
	cfg.PushRate = 1000
	cfg.PushBurst = 10
	cfg.Gatherer = reg
	cfg.Registerer = reg
	return fixture{server: New(q, cfg, nil), queue: q, reg: reg}
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, req)
	return w
}

// =============================================================================
// REST
// =============================================================================

func TestHealthCheck(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetGrid(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/v1/grid", "")

	require.Equal(t, http.StatusOK, w.Code)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.RowCount())
	c, ok := snap.Cell(0, 1)
	require.True(t, ok)
	assert.Equal(t, model.ActionAddRow, c.Action())
}

func TestPostEvent_Activate(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/v1/grid/events", `{"type":"activate","row":0,"cell":1}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"CellActivated(row=0, cell=1)", "AddRowRequested"}, resp.Handled)
	assert.Equal(t, 1, resp.Applied)
	assert.Empty(t, resp.Diagnostics)
	assert.Equal(t, 2, f.queue.Snapshot().RowCount())
}

func TestPostEvent_DiagnosticIsNotAnError(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/v1/grid/events", `{"type":"add_cell","row":7}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp EventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "WARN", resp.Diagnostics[0].Level)
	assert.Contains(t, resp.Diagnostics[0].Error, "row not found")
	assert.Equal(t, 0, resp.Applied)
}

func TestPostEvent_Rejected(t *testing.T) {
	f := newFixture(t)
	for name, body := range map[string]string{
		"malformed":     `{"type":`,
		"unknown type":  `{"type":"remove_row"}`,
		"missing row":   `{"type":"add_cell"}`,
		"negative cell": `{"type":"activate","row":0,"cell":-1}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/v1/grid/events", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
	assert.Equal(t, 4.0, testutil.ToFloat64(f.server.metrics.RejectedTotal.WithLabelValues("http")))
}

func TestPostEvent_QueueClosed(t *testing.T) {
	f := newFixture(t)
	f.queue.Close()
	<-f.queue.Done()

	w := f.do(t, http.MethodPost, "/v1/grid/events", `{"type":"add_row"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/grid/events", `{"type":"add_row"}`)

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gridsheet_dispatch_events_total{result="applied",type="add_row"} 1`)
	assert.Contains(t, w.Body.String(), "gridsheet_rows 2")
}

// =============================================================================
// WebSocket
// =============================================================================

func dialWS(t *testing.T, f fixture) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/grid/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_SessionAndInitialSnapshot(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)

	hello := readMessage(t, conn)
	assert.Equal(t, MessageSession, hello.Type)
	assert.NotEmpty(t, hello.SessionID)

	first := readMessage(t, conn)
	require.Equal(t, MessageSnapshot, first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, 1, first.Snapshot.RowCount())
}

func TestWebSocket_EnvelopeProducesOutcomeAndPush(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)
	readMessage(t, conn)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "add_cell", "row": 0}))

	var gotOutcome, gotPush bool
	for !(gotOutcome && gotPush) {
		msg := readMessage(t, conn)
		switch msg.Type {
		case MessageOutcome:
			gotOutcome = true
			assert.Equal(t, 1, msg.Outcome.Applied)
		case MessageSnapshot:
			gotPush = true
			assert.Equal(t, 4, msg.Snapshot.CellCount(0))
		}
	}
}

func TestWebSocket_InvalidEnvelopeKeepsSession(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)
	readMessage(t, conn)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "edit", "row": 0}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, msg.Error, "invalid event envelope")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "sync"}))
	msg = readMessage(t, conn)
	assert.Equal(t, MessageOutcome, msg.Type)
}

func TestWebSocket_PushesExternalChanges(t *testing.T) {
	f := newFixture(t)
	conn := dialWS(t, f)
	readMessage(t, conn)
	readMessage(t, conn)

	w := f.do(t, http.MethodPost, "/v1/grid/events", `{"type":"add_row"}`)
	require.Equal(t, http.StatusOK, w.Code)

	msg := readMessage(t, conn)
	require.Equal(t, MessageSnapshot, msg.Type)
	assert.Equal(t, 2, msg.Snapshot.RowCount())
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- f.server.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/v1/grid/events", "application/json",
		bytes.NewBufferString(`{"type":"add_row"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
