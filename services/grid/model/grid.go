// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model holds the grid data model: cells, rows, the Grid that owns
// them, and read-only snapshots handed to renderers.
//
// # Description
//
// A Grid is an ordered sequence of rows, each an ordered sequence of cells,
// plus a display configuration record. All structural mutation goes through
// Grid methods. Nothing is ever removed: rows and cells are only appended or
// replaced.
//
// # Thread Safety
//
// Grid is not safe for concurrent use. It is owned by exactly one update
// loop; hosts that accept events from several goroutines serialise them
// through a single writer (see package queue) and hand Snapshot values to
// readers.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Grid owns the rows of a spreadsheet-like grid.
type Grid struct {
	id       uuid.UUID
	rows     []Row
	config   Config
	revision uint64
}

// New creates a grid with the given configuration and seed rows.
//
// # Inputs
//
//   - config: Display configuration. An empty Theme is replaced by DefaultTheme.
//   - rows: Seed rows, copied into the grid.
//
// # Outputs
//
//   - *Grid: Grid at revision 0.
func New(config Config, rows ...Row) *Grid {
	if config.Theme == "" {
		config.Theme = DefaultTheme
	}
	g := &Grid{
		id:     uuid.New(),
		rows:   make([]Row, 0, len(rows)),
		config: config,
	}
	for _, r := range rows {
		g.rows = append(g.rows, r.clone())
	}
	return g
}

// ID returns the grid instance identifier.
func (g *Grid) ID() uuid.UUID { return g.id }

// Revision returns a counter incremented by every successful mutation.
func (g *Grid) Revision() uint64 { return g.revision }

// Config returns the grid's display configuration.
func (g *Grid) Config() Config { return g.config }

// SetTheme replaces the theme tag.
func (g *Grid) SetTheme(theme string) {
	if theme == "" {
		theme = DefaultTheme
	}
	if theme == g.config.Theme {
		return
	}
	g.config.Theme = theme
	g.revision++
}

// SetViewport replaces the viewport dimensions.
func (g *Grid) SetViewport(width, height int) {
	if width == g.config.ViewportWidth && height == g.config.ViewportHeight {
		return
	}
	g.config.ViewportWidth = width
	g.config.ViewportHeight = height
	g.revision++
}

// RowCount returns the number of rows.
func (g *Grid) RowCount() int { return len(g.rows) }

// CellCount returns the number of cells in the row at index.
func (g *Grid) CellCount(index RowIndex) (int, bool) {
	if !g.hasRow(index) {
		return 0, false
	}
	return g.rows[index].Len(), true
}

// AddRow appends a row and returns its index, the previous row count.
func (g *Grid) AddRow(row Row) RowIndex {
	g.rows = append(g.rows, row.clone())
	g.revision++
	return len(g.rows) - 1
}

// AddCell appends a cell to the row at index.
//
// # Outputs
//
//   - CellIndex: Index of the new cell within its row.
//   - error: ErrRowNotFound when index is out of range.
func (g *Grid) AddCell(index RowIndex, cell Cell) (CellIndex, error) {
	if !g.hasRow(index) {
		return 0, g.rowNotFound(index)
	}
	i := g.rows[index].Push(cell)
	g.revision++
	return i, nil
}

// AddCellsToAllRows appends n text cells to every row.
//
// Each new cell is labelled with NewCellLabel, so repeated calls keep
// numbering in step with AddCellRequested.
func (g *Grid) AddCellsToAllRows(n int) {
	if n <= 0 || len(g.rows) == 0 {
		return
	}
	for r := range g.rows {
		for i := 0; i < n; i++ {
			g.rows[r].Push(Text(NewCellLabel(r, g.rows[r].DataCells())))
		}
	}
	g.revision++
}

// GetRow returns a copy of the row at index.
func (g *Grid) GetRow(index RowIndex) (Row, bool) {
	if !g.hasRow(index) {
		return Row{}, false
	}
	return g.rows[index].clone(), true
}

// GetRowMut returns scoped mutable access to the row at index.
func (g *Grid) GetRowMut(index RowIndex) (*RowEditor, bool) {
	if !g.hasRow(index) {
		return nil, false
	}
	return &RowEditor{grid: g, index: index}, true
}

// GetCell returns the cell at (row, cell).
func (g *Grid) GetCell(row RowIndex, cell CellIndex) (Cell, bool) {
	if !g.hasRow(row) {
		return Cell{}, false
	}
	return g.rows[row].Cell(cell)
}

// ReplaceCell swaps the cell at (row, cell) for c.
//
// Returns an error matching ErrCellNotFound when either index is out of
// range. A missing row additionally matches ErrRowNotFound.
func (g *Grid) ReplaceCell(row RowIndex, cell CellIndex, c Cell) error {
	if !g.hasRow(row) {
		return fmt.Errorf("%w: %w", ErrCellNotFound, g.rowNotFound(row))
	}
	if err := g.rows[row].Replace(cell, c); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	g.revision++
	return nil
}

// Snapshot returns an immutable copy of the grid for rendering.
func (g *Grid) Snapshot() Snapshot {
	rows := make([][]Cell, len(g.rows))
	for i, r := range g.rows {
		rows[i] = r.Cells()
	}
	return Snapshot{
		GridID:   g.id.String(),
		Revision: g.revision,
		Config:   g.config.View(),
		Rows:     rows,
	}
}

func (g *Grid) hasRow(index RowIndex) bool {
	return index >= 0 && index < len(g.rows)
}

func (g *Grid) rowNotFound(index RowIndex) error {
	return fmt.Errorf("%w: row %d (grid has %d)", ErrRowNotFound, index, len(g.rows))
}
