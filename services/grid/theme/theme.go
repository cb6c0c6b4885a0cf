// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package theme maps the grid's opaque theme tag to terminal styles.
//
// The grid model never interprets its theme tag. Hosts resolve it here; an
// unknown tag resolves to the main theme so a typo in configuration never
// leaves the grid unstyled.
package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/model"
)

// Theme is a resolved set of lipgloss styles.
type Theme struct {
	Name string

	Title    lipgloss.Style
	Text     lipgloss.Style
	Button   lipgloss.Style
	Embedded lipgloss.Style
	Cursor   lipgloss.Style
	Editing  lipgloss.Style
	Border   lipgloss.Style
	Status   lipgloss.Style
	Warn     lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style
}

// Cell returns the style for a cell kind.
func (t Theme) Cell(kind model.CellKind) lipgloss.Style {
	switch kind {
	case model.KindButton:
		return t.Button
	case model.KindEmbedded:
		return t.Embedded
	default:
		return t.Text
	}
}

// Diagnostic returns the status-line style for a diagnostic level.
func (t Theme) Diagnostic(level logging.Level) lipgloss.Style {
	switch {
	case level >= logging.LevelError:
		return t.Error
	case level >= logging.LevelWarn:
		return t.Warn
	default:
		return t.Status
	}
}

type palette struct {
	title, text, button, buttonBg, embedded, cursorFg, cursorBg, border, status, warn, errFg, help string
}

func (p palette) theme(name string) Theme {
	return Theme{
		Name:  name,
		Title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.title)),
		Text:  lipgloss.NewStyle().Foreground(lipgloss.Color(p.text)),
		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(p.button)).
			Background(lipgloss.Color(p.buttonBg)),
		Embedded: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color(p.embedded)),
		Cursor: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.cursorFg)).
			Background(lipgloss.Color(p.cursorBg)),
		Editing: lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color(p.cursorFg)).
			Background(lipgloss.Color(p.cursorBg)),
		Border: lipgloss.NewStyle().Foreground(lipgloss.Color(p.border)),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color(p.status)),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.warn)),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.errFg)),
		Help:   lipgloss.NewStyle().Foreground(lipgloss.Color(p.help)),
	}
}

var themes = map[string]Theme{
	"main": palette{
		title: "39", text: "250", button: "231", buttonBg: "25", embedded: "212",
		cursorFg: "16", cursorBg: "214", border: "240", status: "241", warn: "214", errFg: "196", help: "241",
	}.theme("main"),
	"dark": palette{
		title: "75", text: "252", button: "231", buttonBg: "238", embedded: "141",
		cursorFg: "16", cursorBg: "75", border: "236", status: "244", warn: "178", errFg: "203", help: "244",
	}.theme("dark"),
	"light": palette{
		title: "25", text: "235", button: "231", buttonBg: "31", embedded: "127",
		cursorFg: "231", cursorBg: "25", border: "250", status: "243", warn: "130", errFg: "160", help: "243",
	}.theme("light"),
	"mono": {
		Name:     "mono",
		Title:    lipgloss.NewStyle().Bold(true),
		Text:     lipgloss.NewStyle(),
		Button:   lipgloss.NewStyle().Bold(true),
		Embedded: lipgloss.NewStyle().Italic(true),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Editing:  lipgloss.NewStyle().Reverse(true).Underline(true),
		Border:   lipgloss.NewStyle().Faint(true),
		Status:   lipgloss.NewStyle().Faint(true),
		Warn:     lipgloss.NewStyle().Bold(true),
		Error:    lipgloss.NewStyle().Bold(true).Underline(true),
		Help:     lipgloss.NewStyle().Faint(true),
	},
}

// Lookup returns the theme registered under tag. Tags are matched
// case-insensitively.
func Lookup(tag string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(tag))]
	return t, ok
}

// Resolve returns the theme for tag, falling back to the main theme.
func Resolve(tag string) Theme {
	if t, ok := Lookup(tag); ok {
		return t
	}
	return themes[model.DefaultTheme]
}

// Names lists the registered theme tags in sorted order.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
