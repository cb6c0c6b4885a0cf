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

import "encoding/json"

// Snapshot is a read-only copy of a Grid taken for one redraw.
//
// Snapshots never share storage with the grid they came from, so they may
// be handed to other goroutines and kept across updates.
type Snapshot struct {
	GridID   string     `json:"grid_id" yaml:"grid_id"`
	Revision uint64     `json:"revision" yaml:"revision"`
	Config   ConfigView `json:"config" yaml:"config"`
	Rows     [][]Cell   `json:"rows" yaml:"rows"`
}

// RowCount returns the number of rows in the snapshot.
func (s Snapshot) RowCount() int { return len(s.Rows) }

// CellCount returns the number of cells in row, or -1 if there is no such row.
func (s Snapshot) CellCount(row RowIndex) int {
	if row < 0 || row >= len(s.Rows) {
		return -1
	}
	return len(s.Rows[row])
}

// Cell returns the cell at (row, cell).
func (s Snapshot) Cell(row RowIndex, cell CellIndex) (Cell, bool) {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}, false
	}
	if cell < 0 || cell >= len(s.Rows[row]) {
		return Cell{}, false
	}
	return s.Rows[row][cell], true
}

// MaxCells returns the length of the longest row.
func (s Snapshot) MaxCells() int {
	n := 0
	for _, r := range s.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// =============================================================================
// Serialisation
// =============================================================================

// cellWire is the serialised form of a Cell. Embedded content is opaque
// and is not serialised.
type cellWire struct {
	Kind   string `json:"kind" yaml:"kind"`
	Label  string `json:"label" yaml:"label"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

func (c Cell) wire() cellWire {
	w := cellWire{Kind: c.kind.String(), Label: c.text}
	if c.kind == KindButton {
		w.Action = c.action.String()
	}
	return w
}

// MarshalJSON implements json.Marshaler.
func (c Cell) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.wire())
}

// UnmarshalJSON implements json.Unmarshaler. Embedded cells decode with
// nil content.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var w cellWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	kind, err := ParseCellKind(w.Kind)
	if err != nil {
		return err
	}
	action, err := ParseAction(w.Action)
	if err != nil {
		return err
	}
	switch kind {
	case KindButton:
		*c = Button(w.Label, action)
	case KindEmbedded:
		*c = Embedded(w.Label, nil)
	default:
		*c = Text(w.Label)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Cell) MarshalYAML() (any, error) {
	return c.wire(), nil
}
