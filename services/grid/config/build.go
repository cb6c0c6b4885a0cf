// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"

	"github.com/AleutianAI/gridsheet/services/grid/model"
)

// Cell builds the model cell described by s.
func (s CellSpec) Cell() (model.Cell, error) {
	kind, err := model.ParseCellKind(s.Kind)
	if err != nil {
		return model.Cell{}, err
	}
	switch kind {
	case model.KindButton:
		action, err := model.ParseAction(s.Action)
		if err != nil {
			return model.Cell{}, err
		}
		return model.Button(s.Text, action), nil
	case model.KindEmbedded:
		return model.Embedded(s.Text, nil), nil
	default:
		return model.Text(s.Text), nil
	}
}

// Row builds the model row described by s.
func (s RowSpec) Row() (model.Row, error) {
	row := model.NewRow()
	for i, cs := range s.Cells {
		c, err := cs.Cell()
		if err != nil {
			return model.Row{}, fmt.Errorf("cell %d: %w", i, err)
		}
		row.Push(c)
	}
	return row, nil
}

// BuildGrid constructs the seeded grid: the configured rows, then
// Seed.FillCells text cells appended to every row.
//
// # Outputs
//
//   - *model.Grid: The seeded grid.
//   - error: Non-nil if a seed cell names an unknown kind or action.
func (c Config) BuildGrid() (*model.Grid, error) {
	rows := make([]model.Row, 0, len(c.Seed.Rows))
	for i, rs := range c.Seed.Rows {
		row, err := rs.Row()
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		rows = append(rows, row)
	}
	g := model.New(c.ModelConfig(), rows...)
	g.AddCellsToAllRows(c.Seed.FillCells)
	return g, nil
}
