// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import "fmt"

// RowIndex is the position of a row within a Grid.
type RowIndex = int

// CellIndex is the position of a cell within a Row.
type CellIndex = int

// Row is an ordered sequence of cells.
//
// A Row value built by the caller is copied when handed to Grid.AddRow, so
// the caller may keep using it without aliasing grid storage. Rows obtained
// from Grid.GetRow are copies as well.
type Row struct {
	cells []Cell
}

// NewRow creates a row holding the given cells.
func NewRow(cells ...Cell) Row {
	r := Row{cells: make([]Cell, len(cells))}
	copy(r.cells, cells)
	return r
}

// Len returns the number of cells in the row.
func (r Row) Len() int { return len(r.cells) }

// Cell returns the cell at i.
func (r Row) Cell(i CellIndex) (Cell, bool) {
	if i < 0 || i >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[i], true
}

// Cells returns a copy of the row's cells.
func (r Row) Cells() []Cell {
	out := make([]Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// DataCells returns the number of cells that carry no action.
//
// Action buttons are controls rather than content, so labels for newly
// appended cells are numbered by this count.
func (r Row) DataCells() int {
	n := 0
	for _, c := range r.cells {
		if !c.Interactive() {
			n++
		}
	}
	return n
}

// Push appends a cell and returns its index.
func (r *Row) Push(c Cell) CellIndex {
	r.cells = append(r.cells, c)
	return len(r.cells) - 1
}

// PushText appends a text cell.
func (r *Row) PushText(s string) CellIndex { return r.Push(Text(s)) }

// PushButton appends a button cell.
func (r *Row) PushButton(label string, action Action) CellIndex {
	return r.Push(Button(label, action))
}

// PushEmbedded appends an embedded cell.
func (r *Row) PushEmbedded(label string, content any) CellIndex {
	return r.Push(Embedded(label, content))
}

// Replace swaps the cell at i for c.
func (r *Row) Replace(i CellIndex, c Cell) error {
	if i < 0 || i >= len(r.cells) {
		return fmt.Errorf("%w: cell %d (row has %d)", ErrCellNotFound, i, len(r.cells))
	}
	r.cells[i] = c
	return nil
}

func (r Row) clone() Row {
	return NewRow(r.cells...)
}

// =============================================================================
// Row Editor
// =============================================================================

// RowEditor is scoped mutable access to one row of a Grid.
//
// # Description
//
// Every mutation made through the editor is applied by the owning Grid, so
// the revision counter stays accurate and no slice of grid storage is ever
// handed out. Editors are cheap; obtain one per update rather than keeping
// it across updates.
type RowEditor struct {
	grid  *Grid
	index RowIndex
}

// Index returns the row index the editor is bound to.
func (e *RowEditor) Index() RowIndex { return e.index }

// Len returns the current number of cells in the row.
func (e *RowEditor) Len() int {
	n, _ := e.grid.CellCount(e.index)
	return n
}

// DataCells returns the number of non-action cells in the row.
func (e *RowEditor) DataCells() int {
	row, ok := e.grid.GetRow(e.index)
	if !ok {
		return 0
	}
	return row.DataCells()
}

// Push appends a cell to the row.
func (e *RowEditor) Push(c Cell) (CellIndex, error) {
	return e.grid.AddCell(e.index, c)
}

// Replace swaps the cell at i for c.
func (e *RowEditor) Replace(i CellIndex, c Cell) error {
	return e.grid.ReplaceCell(e.index, i, c)
}
