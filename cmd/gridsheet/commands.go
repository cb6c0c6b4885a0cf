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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/config"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/model"
	"github.com/AleutianAI/gridsheet/services/grid/tui"
)

// Output formats for show and replay.
const (
	formatTable = "table"
	formatYAML  = "yaml"
	formatJSON  = "json"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	logDir     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "gridsheet",
		Short: "A spreadsheet-style grid of text, button and embedded cells",
		Long: `gridsheet hosts a grid of rows and cells. Button cells add rows and
cells when activated; every change flows through one event dispatcher.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "gridsheet.yaml", "Path to the YAML configuration file (missing file means defaults)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	flags.StringVar(&opts.logDir, "log-dir", "", "Directory for JSON log files (overrides config)")

	cmd.AddCommand(
		newRunCmd(opts),
		newShowCmd(opts),
		newReplayCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// load reads the configuration and applies flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.logLevel)
	}
	if o.logDir != "" {
		cfg.Logging.Dir = o.logDir
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config, service string, w io.Writer) *logging.Logger {
	lc := cfg.LoggerConfig(service)
	lc.Writer = w
	return logging.New(lc)
}

func newDispatcher(cfg config.Config, opts ...dispatch.Option) *dispatch.Dispatcher {
	return dispatch.New(append([]dispatch.Option{dispatch.WithMaxCascade(cfg.Dispatch.MaxCascade)}, opts...)...)
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatYAML, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, formatTable, formatYAML, formatJSON)
}

func writeSnapshot(w io.Writer, snap model.Snapshot, format string) error {
	switch format {
	case formatYAML:
		data, err := yaml.Marshal(snap)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	default:
		_, err := io.WriteString(w, tui.Table(snap))
		return err
	}
}
