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

import "errors"

var (
	// ErrRowNotFound indicates a row index outside [0, RowCount()).
	ErrRowNotFound = errors.New("row not found")

	// ErrCellNotFound indicates a cell index outside the row, or a missing row.
	ErrCellNotFound = errors.New("cell not found")

	// ErrUnknownCellKind indicates an unrecognised cell kind name.
	ErrUnknownCellKind = errors.New("unknown cell kind")

	// ErrUnknownAction indicates an unrecognised action name.
	ErrUnknownAction = errors.New("unknown action")
)
