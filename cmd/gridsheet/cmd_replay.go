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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/event"
)

func newReplayCmd(root *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "replay FILE",
		Short: "Dispatch a YAML list of events against the seeded grid",
		Long: `Replay reads a YAML list of event envelopes, for example

  - type: add_row
  - type: activate
    row: 0
    cell: 2
  - type: edit
    row: 1
    cell: 0
    text: hello

dispatches them in order and prints the resulting grid. Diagnostics raised
along the way are printed to stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return runReplay(cmd, root, args[0], format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, yaml or json")
	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, path, format string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, "gridsheet-replay", cmd.ErrOrStderr())
	defer logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	var envs []event.Envelope
	if err := yaml.Unmarshal(data, &envs); err != nil {
		return fmt.Errorf("parse events %s: %w", path, err)
	}
	events, err := event.DecodeAll(envs)
	if err != nil {
		return fmt.Errorf("decode events %s: %w", path, err)
	}

	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}
	rec := &dispatch.Recorder{}
	d := newDispatcher(cfg, dispatch.WithSink(rec))

	applied := 0
	for _, ev := range events {
		out := d.Dispatch(cmd.Context(), g, ev)
		applied += out.Applied
	}
	logger.Debug("replay finished",
		"events", len(events),
		"applied", applied,
		"diagnostics", len(rec.Diagnostics()),
		"revision", g.Revision(),
	)

	if err := writeSnapshot(cmd.OutOrStdout(), g.Snapshot(), format); err != nil {
		return err
	}
	errOut := cmd.ErrOrStderr()
	for _, diag := range rec.Diagnostics() {
		fmt.Fprintf(errOut, "%-5s %s\n", diag.Level, diag)
	}
	return nil
}
