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
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/config"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/tui"
)

// defaultTUILogDir keeps TUI logs off the screen being drawn.
const defaultTUILogDir = "~/.gridsheet/logs"

func newRunCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the grid in an interactive terminal UI",
		Long: `Run opens the seeded grid in the terminal. Arrow keys or hjkl move the
cursor, enter activates a cell, r adds a row, c adds a cell to the cursor
row and e edits a text cell. Saving a new theme in the configuration file
restyles the grid without a restart.

When stdout is not a terminal the grid is printed once and run exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, root)
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func runTUI(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !isTerminal(out) {
		return writeSnapshot(out, g.Snapshot(), formatTable)
	}

	lc := cfg.LoggerConfig("gridsheet-tui")
	lc.Quiet = true
	if lc.LogDir == "" {
		lc.LogDir = defaultTUILogDir
	}
	logger := logging.New(lc)
	defer logger.Close()

	ctx := cmd.Context()
	d := newDispatcher(cfg, dispatch.WithSink(dispatch.NewLogSink(logger)))
	m := tui.New(g, d, tui.WithLogger(logger), tui.WithContext(ctx))
	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithOutput(out),
	)

	watcher, err := config.NewWatcher(root.configPath, func(next config.Config, err error) {
		if err != nil {
			p.Send(tui.ReloadErrorMsg{Err: err})
			return
		}
		p.Send(tui.ThemeMsg{Tag: next.Grid.Theme})
	}, 0)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		defer watcher.Stop()
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config hot reload disabled", "path", watcher.Path(), "error", err)
		}
	}

	logger.Info("terminal UI started", "grid_id", g.ID().String(), "log_file", logger.FilePath())
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
