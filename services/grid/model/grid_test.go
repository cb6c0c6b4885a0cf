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

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_CopiesSeedRows(t *testing.T) {
	seed := NewRow(Text("a"))
	g := New(Config{}, seed, NewRow())

	seed.PushText("b")

	assert.Equal(t, 2, g.RowCount())
	n, ok := g.CellCount(0)
	require.True(t, ok)
	assert.Equal(t, 1, n, "mutating the seed row must not reach the grid")
	assert.Equal(t, DefaultTheme, g.Config().Theme)
	assert.Equal(t, uint64(0), g.Revision())
}

func TestAddRow_ReturnsPreviousCount(t *testing.T) {
	g := New(DefaultConfig())
	for i := 0; i < 4; i++ {
		assert.Equal(t, i, g.AddRow(NewRow()))
	}
	assert.Equal(t, uint64(4), g.Revision())
}

func TestAddCell(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("x")))

	idx, err := g.AddCell(0, Text("y"))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = g.AddCell(1, Text("z"))
	assert.True(t, errors.Is(err, ErrRowNotFound))
	_, err = g.AddCell(-1, Text("z"))
	assert.True(t, errors.Is(err, ErrRowNotFound))
	assert.Equal(t, uint64(1), g.Revision())
}

func TestGetRow_ReturnsCopy(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("x")))

	row, ok := g.GetRow(0)
	require.True(t, ok)
	row.PushText("leak")
	require.NoError(t, row.Replace(0, Text("changed")))

	c, _ := g.GetCell(0, 0)
	assert.Equal(t, Text("x"), c)
	n, _ := g.CellCount(0)
	assert.Equal(t, 1, n)

	_, ok = g.GetRow(3)
	assert.False(t, ok)
}

func TestGetRowMut_RoutesThroughGrid(t *testing.T) {
	g := New(DefaultConfig(), DefaultRow(0))

	ed, ok := g.GetRowMut(0)
	require.True(t, ok)
	assert.Equal(t, 0, ed.Index())
	assert.Equal(t, 1, ed.DataCells())

	idx, err := ed.Push(Text("Row 1, Cell 2"))
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 4, ed.Len())
	require.NoError(t, ed.Replace(0, Text("head")))
	assert.Equal(t, uint64(2), g.Revision())

	_, ok = g.GetRowMut(1)
	assert.False(t, ok)
}

func TestGetCell_TwoLevelBounds(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("a"), Text("b")))

	for _, tc := range []struct {
		row, cell int
		ok        bool
	}{
		{0, 0, true}, {0, 1, true}, {0, 2, false}, {0, -1, false}, {1, 0, false}, {-1, 0, false},
	} {
		_, ok := g.GetCell(tc.row, tc.cell)
		assert.Equal(t, tc.ok, ok, "GetCell(%d, %d)", tc.row, tc.cell)
	}
}

func TestCellCount(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("a"), Text("b")))
	n, ok := g.CellCount(0)
	assert.True(t, ok)
	assert.Equal(t, 2, n)
	_, ok = g.CellCount(1)
	assert.False(t, ok)
}

func TestReplaceCell(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("a")))

	require.NoError(t, g.ReplaceCell(0, 0, Button("Go", ActionAddRow)))
	c, _ := g.GetCell(0, 0)
	assert.Equal(t, ActionAddRow, c.Action())

	err := g.ReplaceCell(0, 1, Text("x"))
	assert.True(t, errors.Is(err, ErrCellNotFound))
	assert.False(t, errors.Is(err, ErrRowNotFound))

	err = g.ReplaceCell(2, 0, Text("x"))
	assert.True(t, errors.Is(err, ErrCellNotFound))
	assert.True(t, errors.Is(err, ErrRowNotFound))
}

func TestAddCellsToAllRows(t *testing.T) {
	g := New(DefaultConfig(), DefaultRow(0), NewRow())

	g.AddCellsToAllRows(2)

	want := [][]Cell{
		{Text("Row 1, Cell 1"), Button(AddRowLabel, ActionAddRow), Button(AddCellLabel, ActionAddCell),
			Text("Row 1, Cell 2"), Text("Row 1, Cell 3")},
		{Text("Row 2, Cell 1"), Text("Row 2, Cell 2")},
	}
	if diff := cmp.Diff(want, g.Snapshot().Rows, cmp.AllowUnexported(Cell{})); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	rev := g.Revision()
	g.AddCellsToAllRows(0)
	New(DefaultConfig()).AddCellsToAllRows(3)
	assert.Equal(t, rev, g.Revision())
}

func TestSetTheme_And_SetViewport(t *testing.T) {
	g := New(DefaultConfig())

	g.SetTheme(DefaultTheme)
	assert.Equal(t, uint64(0), g.Revision())
	g.SetTheme("mono")
	assert.Equal(t, "mono", g.Config().Theme)
	g.SetTheme("")
	assert.Equal(t, DefaultTheme, g.Config().Theme)

	g.SetViewport(80, 24)
	g.SetViewport(80, 24)
	assert.Equal(t, uint64(3), g.Revision())
	assert.Equal(t, 80, g.Snapshot().Config.ViewportWidth)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Text("a")))
	snap := g.Snapshot()

	_, err := g.AddCell(0, Text("b"))
	require.NoError(t, err)
	g.AddRow(NewRow())

	assert.Equal(t, 1, snap.RowCount())
	assert.Equal(t, 1, snap.CellCount(0))
	assert.Equal(t, -1, snap.CellCount(1))
	assert.Equal(t, g.ID().String(), snap.GridID)

	snap.Rows[0][0] = Text("mutated")
	c, _ := g.GetCell(0, 0)
	assert.Equal(t, Text("a"), c)

	later := g.Snapshot()
	assert.Equal(t, 2, later.MaxCells())
	assert.Greater(t, later.Revision, snap.Revision)
}

func TestSnapshot_JSON(t *testing.T) {
	g := New(DefaultConfig(), NewRow(
		Text("t"), Button("b", ActionAddCell), Embedded("e", struct{}{}),
	))

	data, err := json.Marshal(g.Snapshot())
	require.NoError(t, err)

	var decoded struct {
		Rows [][]map[string]string `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []map[string]string{
		{"kind": "text", "label": "t"},
		{"kind": "button", "label": "b", "action": "add_cell"},
		{"kind": "embedded", "label": "e"},
	}, decoded.Rows[0])

	var back Snapshot
	require.NoError(t, json.Unmarshal(data, &back))
	c, ok := back.Cell(0, 1)
	require.True(t, ok)
	assert.Equal(t, Button("b", ActionAddCell), c)
	c, _ = back.Cell(0, 2)
	assert.Equal(t, KindEmbedded, c.Kind())
	assert.Nil(t, c.Content())
}

func TestSnapshot_YAML(t *testing.T) {
	g := New(DefaultConfig(), NewRow(Button("Add Row", ActionAddRow)))

	data, err := yaml.Marshal(g.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(data), "action: add_row")
	assert.Contains(t, string(data), "theme: main")
}

func TestCell_Variants(t *testing.T) {
	payload := []int{1, 2}
	e := Embedded("chart", payload)
	assert.Equal(t, KindEmbedded, e.Kind())
	assert.Equal(t, payload, e.Content())
	assert.Equal(t, ActionNone, e.Action())
	assert.False(t, e.Interactive())
	assert.Equal(t, "<chart>", e.String())

	b := Button("Go", ActionAddRow)
	assert.True(t, b.Interactive())
	assert.Nil(t, b.Content())
	assert.Equal(t, "[Go]", b.String())

	var zero Cell
	assert.Equal(t, KindText, zero.Kind())
	assert.Equal(t, "", zero.Label())
}

func TestParse(t *testing.T) {
	for _, k := range []CellKind{KindText, KindButton, KindEmbedded} {
		got, err := ParseCellKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseCellKind("slider")
	assert.True(t, errors.Is(err, ErrUnknownCellKind))

	for _, a := range []Action{ActionNone, ActionAddRow, ActionAddCell} {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	_, err = ParseAction("remove_row")
	assert.True(t, errors.Is(err, ErrUnknownAction))
}
