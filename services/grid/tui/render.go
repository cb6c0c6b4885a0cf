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
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/AleutianAI/gridsheet/services/grid/model"
)

// =============================================================================
// Header and Footer
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("gridsheet")
	stats := m.theme.Status.Render(fmt.Sprintf("  rows %d  revision %d  theme %s  cursor (%d, %d)",
		m.grid.RowCount(), m.grid.Revision(), m.theme.Name, m.row+1, m.cell+1))
	rule := m.theme.Border.Render(strings.Repeat("─", max(m.width, 1)))
	return title + stats + "\n" + rule
}

func (m Model) renderFooter() string {
	var keys help.KeyMap = m.keys
	if m.editing {
		keys = editHelp{k: m.keys}
	}
	return m.renderStatus() + "\n" + m.theme.Help.Render(m.help.View(keys))
}

func (m Model) renderStatus() string {
	if m.editing {
		return m.input.View()
	}
	if m.status == nil {
		return m.theme.Status.Render("ready")
	}
	return m.theme.Diagnostic(m.status.level).Render(m.status.text)
}

// =============================================================================
// Grid Rendering
// =============================================================================

func (m Model) renderRows() string {
	rows := m.grid.RowCount()
	if rows == 0 {
		return m.theme.Status.Render("no rows, press r to add one")
	}

	widths := m.columnWidths()
	avail := m.viewport.Width - gutterWidth
	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		row, _ := m.grid.GetRow(r)
		var b strings.Builder
		b.WriteString(m.theme.Border.Render(fmt.Sprintf("%4d ", r+1)))
		if row.Len() == 0 {
			b.WriteString(m.theme.Status.Render("(empty)"))
			lines = append(lines, b.String())
			continue
		}
		used := 0
		for j := m.colOffset; j < row.Len(); j++ {
			w := widths[j]
			if used > 0 && used+cellGap+w > avail {
				break
			}
			if used > 0 {
				b.WriteString(strings.Repeat(" ", cellGap))
				used += cellGap
			}
			c, _ := row.Cell(j)
			b.WriteString(m.cellStyle(r, j, c).Width(w).MaxWidth(w).Render(truncate(c.String(), w)))
			used += w
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func (m Model) cellStyle(r model.RowIndex, j model.CellIndex, c model.Cell) lipgloss.Style {
	if r == m.row && j == m.cell {
		if m.editing {
			return m.theme.Editing
		}
		return m.theme.Cursor
	}
	return m.theme.Cell(c.Kind())
}

// columnWidths returns one width per column: the widest cell in that
// column, at least the configured minimum and at most maxCellWidth.
func (m Model) columnWidths() []int {
	minWidth := m.grid.Config().MinCellSize.Width
	if minWidth < 1 {
		minWidth = 1
	}
	var widths []int
	for r := 0; r < m.grid.RowCount(); r++ {
		row, _ := m.grid.GetRow(r)
		for j, c := range row.Cells() {
			if j == len(widths) {
				widths = append(widths, minWidth)
			}
			if w := lipgloss.Width(c.String()); w > widths[j] {
				widths[j] = min(w, max(maxCellWidth, minWidth))
			}
		}
	}
	return widths
}

// span is the rendered width of adjacent columns.
func span(widths []int) int {
	total := 0
	for i, w := range widths {
		if i > 0 {
			total += cellGap
		}
		total += w
	}
	return total
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}

// =============================================================================
// Plain Rendering
// =============================================================================

// Table renders a snapshot as a bordered table, one line per row. It is used
// when stdout is not a terminal and by the non-interactive commands.
func Table(snap model.Snapshot) string {
	if snap.RowCount() == 0 {
		return "(no rows)\n"
	}
	cols := snap.MaxCells()
	headers := make([]string, cols+1)
	headers[0] = "row"
	for j := 0; j < cols; j++ {
		headers[j+1] = strconv.Itoa(j + 1)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for i, row := range snap.Rows {
		record := make([]string, cols+1)
		record[0] = strconv.Itoa(i + 1)
		for j, c := range row {
			record[j+1] = c.String()
		}
		t.Row(record...)
	}
	return t.Render() + "\n"
}
