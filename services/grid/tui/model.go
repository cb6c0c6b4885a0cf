// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui hosts a grid in the terminal using bubbletea.
//
// # Description
//
// The Model owns a cursor over (row, cell), turns key presses into grid
// events and runs them through a dispatcher inside the bubbletea update
// loop. The latest diagnostic is shown in the status line.
//
// # Thread Safety
//
// The Model is designed for single-threaded use within the bubbletea event
// loop. Do not access the grid it hosts from other goroutines; deliver
// changes as messages through tea.Program.Send instead.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/model"
	"github.com/AleutianAI/gridsheet/services/grid/theme"
)

// =============================================================================
// Messages
// =============================================================================

// ThemeMsg switches the hosted grid to another theme tag.
type ThemeMsg struct {
	Tag string
}

// ReloadErrorMsg reports a configuration reload that failed.
type ReloadErrorMsg struct {
	Err error
}

// =============================================================================
// Options
// =============================================================================

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. It must not write to the terminal the
// program draws on.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithKeyMap replaces the default key bindings.
func WithKeyMap(keys KeyMap) Option {
	return func(m *Model) { m.keys = keys }
}

// WithContext sets the context events are dispatched under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// =============================================================================
// Model
// =============================================================================

const (
	headerHeight = 2
	gutterWidth  = 5
	maxCellWidth = 40
	cellGap      = 1
)

// status is one line of feedback for the status bar.
type status struct {
	level logging.Level
	text  string
}

// Model is the bubbletea model hosting one grid.
type Model struct {
	ctx        context.Context
	grid       *model.Grid
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger

	keys     KeyMap
	help     help.Model
	viewport viewport.Model
	input    textinput.Model
	theme    theme.Theme

	// Cursor and scroll state
	row       model.RowIndex
	cell      model.CellIndex
	colOffset int
	offset    event.Offset

	editing  bool
	status   *status
	last     dispatch.Outcome
	width    int
	height   int
	quitting bool
}

// New creates a model hosting g.
//
// # Inputs
//
//   - g: Grid to host. The model mutates it on every dispatched event.
//   - d: Dispatcher. Nil selects dispatch.New().
//   - opts: Optional settings.
//
// # Outputs
//
//   - Model: Ready-to-use model for tea.NewProgram, laid out at the
//     grid's configured viewport until the first tea.WindowSizeMsg.
func New(g *model.Grid, d *dispatch.Dispatcher, opts ...Option) Model {
	if d == nil {
		d = dispatch.New()
	}
	input := textinput.New()
	input.Prompt = "edit> "
	input.CharLimit = 4096

	m := Model{
		ctx:        context.Background(),
		grid:       g,
		dispatcher: d,
		logger:     logging.Discard(),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		input:      input,
		theme:      theme.Resolve(g.Config().Theme),
	}
	for _, opt := range opts {
		opt(&m)
	}

	cfg := g.Config()
	width, height := cfg.ViewportWidth, cfg.ViewportHeight
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	m.viewport = viewport.New(width, height)
	m.layout(width, height)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.grid.SetViewport(msg.Width, msg.Height)
		m.layout(msg.Width, msg.Height)
		m.follow()
		return m, nil

	case ThemeMsg:
		m.grid.SetTheme(msg.Tag)
		m.theme = theme.Resolve(msg.Tag)
		m.status = &status{level: logging.LevelInfo, text: "theme " + m.theme.Name}
		m.refresh()
		return m, nil

	case ReloadErrorMsg:
		m.status = &status{level: logging.LevelError, text: "config reload failed: " + msg.Err.Error()}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.syncOffset()
		return m, cmd

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout(m.width, m.height)

	case key.Matches(msg, m.keys.Up):
		m.moveRow(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveRow(1)
	case key.Matches(msg, m.keys.Left):
		m.moveCell(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCell(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveRow(-m.viewport.Height)
	case key.Matches(msg, m.keys.PageDown):
		m.moveRow(m.viewport.Height)

	case key.Matches(msg, m.keys.Activate):
		if _, ok := m.grid.GetCell(m.row, m.cell); ok {
			m.dispatch(event.CellActivated{Row: m.row, Cell: m.cell})
		}
	case key.Matches(msg, m.keys.AddRow):
		m.dispatch(event.AddRowRequested{})
	case key.Matches(msg, m.keys.AddCell):
		m.dispatch(event.AddCellRequested{Row: m.row})
	case key.Matches(msg, m.keys.Sync):
		m.dispatch(event.SyncRequested{})

	case key.Matches(msg, m.keys.Edit):
		return m, m.startEdit()

	default:
		return m, nil
	}
	m.follow()
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Commit):
		text := m.input.Value()
		m.stopEdit()
		m.dispatch(event.CellEdited{Row: m.row, Cell: m.cell, Text: text})
		m.follow()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.stopEdit()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

// =============================================================================
// Dispatch
// =============================================================================

func (m *Model) dispatch(ev event.Event) {
	out := m.dispatcher.Dispatch(m.ctx, m.grid, ev)
	m.last = out
	switch n := len(out.Diagnostics); {
	case n > 0:
		d := out.Diagnostics[n-1]
		m.status = &status{level: d.Level, text: d.String()}
	case ev.Type() != event.TypeScroll:
		m.status = nil
	}
	m.logger.Debug("grid event dispatched",
		"event", ev.String(),
		"handled", len(out.Handled),
		"applied", out.Applied,
		"revision", out.Revision,
	)
	m.clampCursor()
	m.refresh()
}

// syncOffset dispatches ScrollOffsetChanged when the visible window moved.
func (m *Model) syncOffset() {
	next := event.Offset{X: float64(m.colOffset), Y: float64(m.viewport.YOffset)}
	if next == m.offset {
		return
	}
	m.offset = next
	m.dispatch(event.ScrollOffsetChanged{Offset: next})
}

// =============================================================================
// Editing
// =============================================================================

func (m *Model) startEdit() tea.Cmd {
	c, ok := m.grid.GetCell(m.row, m.cell)
	if !ok {
		return nil
	}
	if c.Kind() != model.KindText {
		m.status = &status{level: logging.LevelInfo, text: "only text cells can be edited"}
		return nil
	}
	m.editing = true
	m.input.SetValue(c.Label())
	m.input.CursorEnd()
	m.layout(m.width, m.height)
	return m.input.Focus()
}

func (m *Model) stopEdit() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
	m.layout(m.width, m.height)
}

// =============================================================================
// Cursor and Layout
// =============================================================================

func (m *Model) moveRow(delta int) {
	n := m.grid.RowCount()
	if n == 0 {
		return
	}
	m.row = clamp(m.row+delta, 0, n-1)
	m.clampCursor()
}

func (m *Model) moveCell(delta int) {
	n, ok := m.grid.CellCount(m.row)
	if !ok || n == 0 {
		return
	}
	m.cell = clamp(m.cell+delta, 0, n-1)
}

func (m *Model) clampCursor() {
	rows := m.grid.RowCount()
	if rows == 0 {
		m.row, m.cell = 0, 0
		return
	}
	m.row = clamp(m.row, 0, rows-1)
	cells, _ := m.grid.CellCount(m.row)
	if cells == 0 {
		m.cell = 0
		return
	}
	m.cell = clamp(m.cell, 0, cells-1)
}

// follow scrolls so the cursor is visible, then reports any movement.
func (m *Model) follow() {
	if m.row < m.viewport.YOffset {
		m.viewport.SetYOffset(m.row)
	} else if m.row >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.row - m.viewport.Height + 1)
	}

	widths := m.columnWidths()
	if m.cell < m.colOffset {
		m.colOffset = m.cell
	}
	for m.colOffset < m.cell && m.cell < len(widths) &&
		span(widths[m.colOffset:m.cell+1]) > m.viewport.Width-gutterWidth {
		m.colOffset++
	}
	m.refresh()
	m.syncOffset()
}

func (m *Model) layout(width, height int) {
	m.width, m.height = width, height
	m.help.Width = width
	body := height - headerHeight - lipgloss.Height(m.renderFooter())
	if body < 1 {
		body = 1
	}
	m.viewport.Width = width
	m.viewport.Height = body
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderRows())
}

// =============================================================================
// Accessors
// =============================================================================

// Grid returns the hosted grid.
func (m Model) Grid() *model.Grid { return m.grid }

// Cursor returns the cursor position.
func (m Model) Cursor() (model.RowIndex, model.CellIndex) { return m.row, m.cell }

// Editing reports whether a cell is being edited.
func (m Model) Editing() bool { return m.editing }

// Offset returns the last scroll offset reported to the dispatcher.
func (m Model) Offset() event.Offset { return m.offset }

// Theme returns the resolved theme.
func (m Model) Theme() theme.Theme { return m.theme }

// LastOutcome returns the outcome of the most recent dispatch.
func (m Model) LastOutcome() dispatch.Outcome { return m.last }

// StatusLine returns the unstyled status text, or "" when there is none.
func (m Model) StatusLine() string {
	if m.status == nil {
		return ""
	}
	return m.status.text
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
