// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/model"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"dark", "light", "main", "mono"}, Names())
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		th, ok := Lookup(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, th.Name)
	}

	th, ok := Lookup("  Dark ")
	assert.True(t, ok)
	assert.Equal(t, "dark", th.Name)

	_, ok = Lookup("solarized")
	assert.False(t, ok)
}

func TestResolve_FallsBackToMain(t *testing.T) {
	assert.Equal(t, model.DefaultTheme, Resolve("solarized").Name)
	assert.Equal(t, model.DefaultTheme, Resolve("").Name)
	assert.Equal(t, "mono", Resolve("mono").Name)
}

func TestCellAndDiagnosticStyles(t *testing.T) {
	th := Resolve("main")

	assert.Equal(t, th.Button, th.Cell(model.KindButton))
	assert.Equal(t, th.Embedded, th.Cell(model.KindEmbedded))
	assert.Equal(t, th.Text, th.Cell(model.KindText))

	assert.Equal(t, th.Error, th.Diagnostic(logging.LevelError))
	assert.Equal(t, th.Warn, th.Diagnostic(logging.LevelWarn))
	assert.Equal(t, th.Status, th.Diagnostic(logging.LevelDebug))
}

func TestMono_RendersPlainText(t *testing.T) {
	th := Resolve("mono")
	assert.Equal(t, "cell", th.Text.Render("cell"))
}
