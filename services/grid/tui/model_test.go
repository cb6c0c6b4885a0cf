// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/gridsheet/services/grid/event"
	"github.com/AleutianAI/gridsheet/services/grid/model"
)

func seededModel() Model {
	g := model.New(model.DefaultConfig(), model.DefaultRow(0))
	return New(g, nil)
}

func tallModel(rows int) Model {
	seed := make([]model.Row, rows)
	for i := range seed {
		seed[i] = model.DefaultRow(i)
	}
	m := New(model.New(model.DefaultConfig(), seed...), nil)
	return send(m, tea.WindowSizeMsg{Width: 80, Height: 8})
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// =============================================================================
// Navigation
// =============================================================================

func TestNew_InitialState(t *testing.T) {
	m := seededModel()

	row, cell := m.Cursor()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, cell)
	assert.False(t, m.Editing())
	assert.Nil(t, m.Init())
	assert.Contains(t, m.View(), "Row 1, Cell 1")
	assert.Contains(t, m.View(), "[Add Row]")
}

func TestCursor_MovesAndClamps(t *testing.T) {
	m := seededModel()

	m = send(m, tea.KeyMsg{Type: tea.KeyRight}, runes("l"), runes("l"), runes("l"))
	_, cell := m.Cursor()
	assert.Equal(t, 2, cell, "cursor stops at the last cell")

	m = send(m, runes("h"))
	_, cell = m.Cursor()
	assert.Equal(t, 1, cell)

	m = send(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyUp}, runes("k"))
	row, _ := m.Cursor()
	assert.Equal(t, 0, row)
}

// =============================================================================
// Events
// =============================================================================

func TestActivate_AddRowButton(t *testing.T) {
	m := seededModel()

	m = send(m, runes("l"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 2, m.Grid().RowCount())
	out := m.LastOutcome()
	require.Len(t, out.Handled, 2)
	assert.Equal(t, event.TypeActivate, out.Handled[0].Type())
	assert.Equal(t, event.TypeAddRow, out.Handled[1].Type())
	assert.Empty(t, m.StatusLine())
}

func TestActivate_SpaceOnAddCellButton(t *testing.T) {
	m := seededModel()

	m = send(m, runes("l"), runes("l"), tea.KeyMsg{Type: tea.KeySpace})

	n, ok := m.Grid().CellCount(0)
	require.True(t, ok)
	assert.Equal(t, 4, n)
	c, _ := m.Grid().GetCell(0, 3)
	assert.Equal(t, "Row 1, Cell 2", c.Label())
}

func TestActivate_TextCellReportsDiagnostic(t *testing.T) {
	m := seededModel()

	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 1, m.Grid().RowCount())
	assert.Contains(t, m.StatusLine(), "has no action")
}

func TestKeys_AddRowAndAddCell(t *testing.T) {
	m := seededModel()

	m = send(m, runes("r"), runes("j"), runes("c"))

	assert.Equal(t, 2, m.Grid().RowCount())
	n, _ := m.Grid().CellCount(1)
	assert.Equal(t, 4, n, "add-cell targets the cursor row")
	n, _ = m.Grid().CellCount(0)
	assert.Equal(t, 3, n)
}

func TestAddCell_EmptyGridShowsDiagnostic(t *testing.T) {
	m := New(model.New(model.DefaultConfig()), nil)

	m = send(m, runes("c"))

	assert.Equal(t, 0, m.Grid().RowCount())
	assert.Contains(t, m.StatusLine(), "row not found")
	assert.Contains(t, m.View(), "no rows")
}

// =============================================================================
// Editing
// =============================================================================

func TestEdit_Commit(t *testing.T) {
	m := seededModel()

	m = send(m, runes("e"))
	require.True(t, m.Editing())

	m = send(m, runes("!"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.Editing())
	c, _ := m.Grid().GetCell(0, 0)
	assert.Equal(t, "Row 1, Cell 1!", c.Label())
	assert.Equal(t, 1, m.LastOutcome().Applied)
}

func TestEdit_Cancel(t *testing.T) {
	m := seededModel()

	m = send(m, runes("e"), runes("xyz"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.False(t, m.Editing())
	c, _ := m.Grid().GetCell(0, 0)
	assert.Equal(t, "Row 1, Cell 1", c.Label())
	assert.Equal(t, uint64(0), m.Grid().Revision())
}

func TestEdit_KeysAreTextWhileEditing(t *testing.T) {
	m := seededModel()

	m = send(m, runes("e"), runes("r"), runes("q"))

	assert.True(t, m.Editing())
	assert.Equal(t, 1, m.Grid().RowCount(), "r is typed, not dispatched")
}

func TestEdit_ButtonIsNotEditable(t *testing.T) {
	m := seededModel()

	m = send(m, runes("l"), runes("e"))

	assert.False(t, m.Editing())
	assert.Equal(t, "only text cells can be edited", m.StatusLine())
}

// =============================================================================
// Scrolling
// =============================================================================

func TestPageDown_DispatchesScroll(t *testing.T) {
	m := tallModel(12)

	m = send(m, tea.KeyMsg{Type: tea.KeyPgDown})

	row, _ := m.Cursor()
	assert.Greater(t, row, 0)
	assert.Greater(t, m.Offset().Y, 0.0)

	out := m.LastOutcome()
	require.Len(t, out.Handled, 2)
	assert.Equal(t, event.TypeScroll, out.Handled[0].Type())
	assert.Equal(t, event.TypeSync, out.Handled[1].Type(), "default scroll callback requests a sync")
}

func TestMouseWheel_DispatchesScroll(t *testing.T) {
	m := tallModel(12)

	m = send(m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})

	assert.Greater(t, m.Offset().Y, 0.0)
	assert.Equal(t, event.TypeScroll, m.LastOutcome().Handled[0].Type())
}

func TestScroll_NoMovementNoEvent(t *testing.T) {
	m := seededModel()

	m = send(m, tea.KeyMsg{Type: tea.KeyPgUp})

	assert.Equal(t, event.Offset{}, m.Offset())
	assert.Empty(t, m.LastOutcome().Handled)
}

// =============================================================================
// Host Messages
// =============================================================================

func TestWindowSize_UpdatesGridViewport(t *testing.T) {
	m := seededModel()

	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	cfg := m.Grid().Config()
	assert.Equal(t, 100, cfg.ViewportWidth)
	assert.Equal(t, 30, cfg.ViewportHeight)
	assert.LessOrEqual(t, len(strings.Split(m.View(), "\n")), 30)
}

func TestThemeMsg_SwitchesTheme(t *testing.T) {
	m := seededModel()

	m = send(m, ThemeMsg{Tag: "dark"})

	assert.Equal(t, "dark", m.Theme().Name)
	assert.Equal(t, "dark", m.Grid().Config().Theme)
	assert.Equal(t, "theme dark", m.StatusLine())

	m = send(m, ThemeMsg{Tag: "no-such-theme"})
	assert.Equal(t, "main", m.Theme().Name)
	assert.Equal(t, "no-such-theme", m.Grid().Config().Theme, "the tag stays opaque to the grid")
}

func TestReloadErrorMsg(t *testing.T) {
	m := seededModel()

	m = send(m, ReloadErrorMsg{Err: errors.New("bad yaml")})

	assert.Equal(t, "config reload failed: bad yaml", m.StatusLine())
}

func TestHelp_Toggle(t *testing.T) {
	m := seededModel()
	assert.NotContains(t, m.View(), "page up")

	m = send(m, runes("?"))
	assert.Contains(t, m.View(), "page up")

	m = send(m, runes("?"))
	assert.NotContains(t, m.View(), "page up")
}

func TestQuit(t *testing.T) {
	m := seededModel()

	updated, cmd := m.Update(runes("q"))

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, updated.View())
}
