// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/gridsheet/services/grid/config"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/queue"
	"github.com/AleutianAI/gridsheet/services/grid/server"
	"github.com/AleutianAI/gridsheet/services/grid/telemetry"
)

const telemetryShutdownTimeout = 5 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid over HTTP and websockets",
		Long: `Serve owns the seeded grid behind a single-writer queue and exposes it:

  GET  /health           liveness
  GET  /v1/grid          current snapshot
  POST /v1/grid/events   dispatch one event envelope
  GET  /v1/grid/ws       snapshot push plus envelope submission
  GET  /metrics          Prometheus exposition`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config and GRIDSHEET_ADDR)")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg config.Config) error {
	logger := newLogger(cfg, "gridsheet-server", cmd.ErrOrStderr())
	defer logger.Close()
	gin.SetMode(gin.ReleaseMode)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tcfg := cfg.Telemetry
	tcfg.Registerer = reg
	tcfg.Writer = cmd.ErrOrStderr()
	shutdownTelemetry, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), telemetryShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}
	d := newDispatcher(cfg,
		dispatch.WithSink(dispatch.NewLogSink(logger)),
		dispatch.WithMetrics(dispatch.NewMetrics(reg)),
	)
	q := queue.New(g, d, queue.WithLogger(logger))
	srv := server.New(q, server.Config{
		ServiceName:       tcfg.ServiceName,
		PushRate:          cfg.Server.PushRate,
		PushBurst:         cfg.Server.PushBurst,
		Gatherer:          reg,
		Registerer:        reg,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, logger)

	logger.Info("starting grid server",
		"addr", cfg.Server.Addr,
		"grid_id", g.ID().String(),
		"rows", g.RowCount(),
		"trace_exporter", tcfg.TraceExporter,
		"metric_exporter", tcfg.MetricExporter,
	)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return q.Run(egctx)
	})
	eg.Go(func() error {
		defer q.Close()
		return srv.ListenAndServe(egctx, cfg.Server.Addr)
	})
	return eg.Wait()
}
