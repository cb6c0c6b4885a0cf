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

import "github.com/AleutianAI/gridsheet/services/grid/event"

// DefaultTheme is the theme tag used when none is configured.
const DefaultTheme = "main"

// Size is a width and height in host units.
//
// The core attaches no meaning to the unit. The terminal host reads it
// as character cells.
type Size struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// ScrollFunc maps a new scroll offset to the events it should raise.
type ScrollFunc func(offset event.Offset) []event.Event

// SyncOnScroll is the default ScrollFunc: every scroll requests a sync.
func SyncOnScroll(event.Offset) []event.Event {
	return []event.Event{event.SyncRequested{}}
}

// Config is the display-affecting configuration of a Grid.
//
// Hosts consume it as opaque data: the theme tag in particular is resolved
// by the host, never by the core.
type Config struct {
	// ViewportWidth is the visible width. Zero lets the host decide.
	ViewportWidth int

	// ViewportHeight is the visible height. Zero lets the host decide.
	ViewportHeight int

	// MinCellSize is the smallest size a cell is laid out at.
	MinCellSize Size

	// OnScroll is invoked by the dispatcher for ScrollOffsetChanged.
	// Nil raises no events.
	OnScroll ScrollFunc

	// Theme is the opaque style tag.
	Theme string
}

// DefaultConfig returns the configuration used by the seeded application.
func DefaultConfig() Config {
	return Config{
		ViewportWidth:  120,
		ViewportHeight: 40,
		MinCellSize:    Size{Width: 14, Height: 1},
		OnScroll:       SyncOnScroll,
		Theme:          DefaultTheme,
	}
}

// ConfigView is the serialisable part of a Config.
type ConfigView struct {
	ViewportWidth  int    `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `json:"viewport_height" yaml:"viewport_height"`
	MinCellSize    Size   `json:"min_cell_size" yaml:"min_cell_size"`
	Theme          string `json:"theme" yaml:"theme"`
}

// View returns the serialisable part of the configuration.
func (c Config) View() ConfigView {
	return ConfigView{
		ViewportWidth:  c.ViewportWidth,
		ViewportHeight: c.ViewportHeight,
		MinCellSize:    c.MinCellSize,
		Theme:          c.Theme,
	}
}
