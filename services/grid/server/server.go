// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes a queued grid over HTTP and websockets.
//
// # Routes
//
//   - GET  /health           liveness
//   - GET  /v1/grid          current snapshot
//   - POST /v1/grid/events   dispatch one event envelope
//   - GET  /v1/grid/ws       snapshot push plus envelope submission
//   - GET  /metrics          Prometheus exposition
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/queue"
)

// Config configures a Server.
type Config struct {
	// ServiceName names the otelgin server spans.
	ServiceName string

	// PushRate is the maximum snapshots per second sent to one websocket.
	PushRate float64

	// PushBurst is the websocket push burst size.
	PushBurst int

	// Gatherer backs /metrics. Nil selects prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Registerer receives the server metrics. Nil selects
	// prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:       "gridsheet",
		PushRate:          10,
		PushBurst:         2,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

// Server serves one grid queue.
//
// Thread Safety: Safe for concurrent use.
type Server struct {
	queue   *queue.Queue
	logger  *logging.Logger
	config  Config
	metrics *Metrics
	engine  *gin.Engine
}

// New builds the router for q.
//
// # Inputs
//
//   - q: Queue owning the grid. Its Run loop must be started by the caller.
//   - cfg: Server configuration.
//   - logger: Request and websocket logger. Nil selects logging.Discard().
func New(q *queue.Queue, cfg Config, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "gridsheet"
	}
	if cfg.PushRate <= 0 {
		cfg.PushRate = DefaultConfig().PushRate
	}
	if cfg.PushBurst < 1 {
		cfg.PushBurst = 1
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		queue:   q,
		logger:  logger,
		config:  cfg,
		metrics: NewMetrics(cfg.Registerer),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(s.requestLogger())

	router.GET("/health", HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	{
		grid := v1.Group("/grid")
		{
			grid.GET("", s.handleSnapshot)
			grid.POST("/events", s.handleEvent)
			grid.GET("/ws", s.handleWebSocket)
		}
	}

	s.engine = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("grid server listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("grid server stopped")
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
