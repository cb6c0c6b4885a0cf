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

// Labels of the action buttons in a default row.
const (
	AddRowLabel  = "Add Row"
	AddCellLabel = "Add Cell"
)

// NewCellLabel returns the label of the text cell appended to a row.
//
// row is zero-based; dataCells is the number of non-action cells the row
// already holds. Both are shown one-based.
func NewCellLabel(row RowIndex, dataCells int) string {
	return fmt.Sprintf("Row %d, Cell %d", row+1, dataCells+1)
}

// DefaultRow builds the row appended for an add-row request.
//
// index is the index the row will occupy. The row holds a label cell and
// the two action buttons.
func DefaultRow(index RowIndex) Row {
	return NewRow(
		Text(NewCellLabel(index, 0)),
		Button(AddRowLabel, ActionAddRow),
		Button(AddCellLabel, ActionAddCell),
	)
}
