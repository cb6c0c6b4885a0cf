// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package event defines the discrete occurrences hosts deliver to the grid
// dispatcher, and their wire envelope.
//
// Events are plain values. Hosts translate raw input (key presses, pointer
// clicks, scroll deltas, HTTP requests) into these types; the host owns the
// mapping from screen coordinates to row and cell indices.
package event

import "fmt"

// Type is the wire name of an event variant.
type Type string

const (
	TypeAddRow   Type = "add_row"
	TypeAddCell  Type = "add_cell"
	TypeActivate Type = "activate"
	TypeEdit     Type = "edit"
	TypeScroll   Type = "scroll"
	TypeSync     Type = "sync"
)

// Event is one of the variants declared in this package.
type Event interface {
	// Type returns the wire name of the variant.
	Type() Type

	fmt.Stringer
}

// Offset is an absolute scroll position in host units.
type Offset struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// AddRowRequested asks for a default row to be appended.
type AddRowRequested struct{}

// AddCellRequested asks for a text cell to be appended to Row.
type AddCellRequested struct {
	Row int
}

// CellActivated reports a click or key activation of a cell.
type CellActivated struct {
	Row  int
	Cell int
}

// CellEdited carries replacement text for a text cell.
type CellEdited struct {
	Row  int
	Cell int
	Text string
}

// ScrollOffsetChanged reports that the host viewport moved.
type ScrollOffsetChanged struct {
	Offset Offset
}

// SyncRequested asks for model state to be synchronised. It is currently
// acknowledged without effect.
type SyncRequested struct{}

func (AddRowRequested) Type() Type     { return TypeAddRow }
func (AddCellRequested) Type() Type    { return TypeAddCell }
func (CellActivated) Type() Type       { return TypeActivate }
func (CellEdited) Type() Type          { return TypeEdit }
func (ScrollOffsetChanged) Type() Type { return TypeScroll }
func (SyncRequested) Type() Type       { return TypeSync }

func (AddRowRequested) String() string { return "AddRowRequested" }

func (e AddCellRequested) String() string {
	return fmt.Sprintf("AddCellRequested(row=%d)", e.Row)
}

func (e CellActivated) String() string {
	return fmt.Sprintf("CellActivated(row=%d, cell=%d)", e.Row, e.Cell)
}

func (e CellEdited) String() string {
	return fmt.Sprintf("CellEdited(row=%d, cell=%d, %q)", e.Row, e.Cell, e.Text)
}

func (e ScrollOffsetChanged) String() string {
	return fmt.Sprintf("ScrollOffsetChanged(x=%g, y=%g)", e.Offset.X, e.Offset.Y)
}

func (SyncRequested) String() string { return "SyncRequested" }
