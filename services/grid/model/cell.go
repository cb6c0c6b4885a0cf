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

// =============================================================================
// Cell Kind
// =============================================================================

// CellKind identifies which variant a Cell holds.
type CellKind int

const (
	// KindText is a plain text label.
	KindText CellKind = iota

	// KindButton is a labelled, activatable cell carrying an Action.
	KindButton

	// KindEmbedded holds opaque content the host knows how to render.
	KindEmbedded
)

// String returns the lowercase name of the kind.
func (k CellKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindButton:
		return "button"
	case KindEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// ParseCellKind converts a name produced by String back into a CellKind.
func ParseCellKind(s string) (CellKind, error) {
	switch s {
	case "text", "":
		return KindText, nil
	case "button":
		return KindButton, nil
	case "embedded":
		return KindEmbedded, nil
	default:
		return KindText, fmt.Errorf("%w: %q", ErrUnknownCellKind, s)
	}
}

// =============================================================================
// Action
// =============================================================================

// Action is the capability an interactive cell triggers when activated.
//
// The dispatcher resolves a CellActivated event through the activated
// cell's Action, never through the cell's column position.
type Action int

const (
	// ActionNone means activation is acknowledged but changes nothing.
	ActionNone Action = iota

	// ActionAddRow appends a default row to the grid.
	ActionAddRow

	// ActionAddCell appends a text cell to the activated cell's row.
	ActionAddCell
)

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionAddRow:
		return "add_row"
	case ActionAddCell:
		return "add_cell"
	default:
		return "unknown"
	}
}

// ParseAction converts a wire name into an Action. The empty string is none.
func ParseAction(s string) (Action, error) {
	switch s {
	case "none", "":
		return ActionNone, nil
	case "add_row":
		return ActionAddRow, nil
	case "add_cell":
		return ActionAddCell, nil
	default:
		return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// =============================================================================
// Cell
// =============================================================================

// Cell is a single grid entry.
//
// # Description
//
// Cell is a value type holding exactly one of three variants: Text, Button
// or Embedded. Construct cells with Text, Button or Embedded; the zero Cell
// is an empty text cell. A cell is never modified in place, only replaced
// through Grid.ReplaceCell.
type Cell struct {
	kind    CellKind
	text    string
	action  Action
	content any
}

// Text creates a text cell.
func Text(s string) Cell {
	return Cell{kind: KindText, text: s}
}

// Button creates a button cell with the given label and action.
func Button(label string, action Action) Cell {
	return Cell{kind: KindButton, text: label, action: action}
}

// Embedded creates a cell wrapping opaque host content.
//
// label is what text-only hosts display in its place; content is never
// inspected by the core.
func Embedded(label string, content any) Cell {
	return Cell{kind: KindEmbedded, text: label, content: content}
}

// Kind returns the variant held by the cell.
func (c Cell) Kind() CellKind { return c.kind }

// Label returns the text of a text cell, the label of a button, or the
// placeholder label of an embedded cell.
func (c Cell) Label() string { return c.text }

// Action returns the action of a button cell. Other kinds return ActionNone.
func (c Cell) Action() Action {
	if c.kind != KindButton {
		return ActionNone
	}
	return c.action
}

// Content returns the opaque payload of an embedded cell, nil otherwise.
func (c Cell) Content() any {
	if c.kind != KindEmbedded {
		return nil
	}
	return c.content
}

// Interactive reports whether activating the cell does anything.
func (c Cell) Interactive() bool {
	return c.Action() != ActionNone
}

// String renders the cell for diagnostics.
func (c Cell) String() string {
	switch c.kind {
	case KindButton:
		return fmt.Sprintf("[%s]", c.text)
	case KindEmbedded:
		return fmt.Sprintf("<%s>", c.text)
	default:
		return c.text
	}
}
