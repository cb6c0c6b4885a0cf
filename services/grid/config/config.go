// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads gridsheet configuration from YAML with environment
// overrides, validates it, and builds the seeded grid it describes.
//
// Priority is env > file > defaults. A config path that does not exist is
// not an error: the defaults are used.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/gridsheet/pkg/logging"
	"github.com/AleutianAI/gridsheet/services/grid/dispatch"
	"github.com/AleutianAI/gridsheet/services/grid/model"
	"github.com/AleutianAI/gridsheet/services/grid/telemetry"
)

// Environment variables read by Load.
const (
	EnvTheme    = "GRIDSHEET_THEME"
	EnvLogLevel = "GRIDSHEET_LOG_LEVEL"
	EnvAddr     = "GRIDSHEET_ADDR"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

var configValidate = validator.New()

// Config is the top-level gridsheet configuration.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after creation.
type Config struct {
	// Grid contains the grid display configuration.
	Grid GridConfig `json:"grid" yaml:"grid"`

	// Dispatch contains dispatcher limits.
	Dispatch DispatchConfig `json:"dispatch" yaml:"dispatch"`

	// Seed describes the rows the grid starts with.
	Seed SeedConfig `json:"seed" yaml:"seed"`

	// Server contains HTTP server settings for `gridsheet serve`.
	Server ServerConfig `json:"server" yaml:"server"`

	// Logging contains log destination settings.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Telemetry contains OpenTelemetry exporter settings.
	Telemetry telemetry.Config `json:"telemetry" yaml:"telemetry"`
}

// GridConfig holds the presentation settings copied into the grid model.
// Sizes are in terminal cells.
type GridConfig struct {
	ViewportWidth  int    `json:"viewport_width" yaml:"viewport_width" validate:"gt=0"`
	ViewportHeight int    `json:"viewport_height" yaml:"viewport_height" validate:"gt=0"`
	MinCellWidth   int    `json:"min_cell_width" yaml:"min_cell_width" validate:"gt=0"`
	MinCellHeight  int    `json:"min_cell_height" yaml:"min_cell_height" validate:"gt=0"`
	Theme          string `json:"theme" yaml:"theme" validate:"required,max=64"`

	// SyncOnScroll installs the scroll callback that requests a sync.
	// False leaves the callback unset.
	SyncOnScroll bool `json:"sync_on_scroll" yaml:"sync_on_scroll"`
}

// DispatchConfig bounds event cascades.
type DispatchConfig struct {
	MaxCascade int `json:"max_cascade" yaml:"max_cascade" validate:"gte=1,lte=1024"`
}

// SeedConfig lists the initial rows and how many text cells to append to
// every row afterwards.
type SeedConfig struct {
	Rows      []RowSpec `json:"rows" yaml:"rows" validate:"dive"`
	FillCells int       `json:"fill_cells" yaml:"fill_cells" validate:"gte=0,lte=1000"`
}

// RowSpec describes one seed row.
type RowSpec struct {
	Cells []CellSpec `json:"cells" yaml:"cells" validate:"dive"`
}

// CellSpec describes one seed cell. Kind defaults to text.
type CellSpec struct {
	Kind   string `json:"kind,omitempty" yaml:"kind,omitempty" validate:"omitempty,oneof=text button embedded"`
	Text   string `json:"text" yaml:"text" validate:"max=4096"`
	Action string `json:"action,omitempty" yaml:"action,omitempty" validate:"omitempty,oneof=none add_row add_cell"`
}

// ServerConfig configures `gridsheet serve`.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`

	// PushRate is the maximum snapshots per second pushed to one websocket.
	PushRate float64 `json:"push_rate" yaml:"push_rate" validate:"gt=0"`

	// PushBurst is the websocket push burst size.
	PushBurst int `json:"push_burst" yaml:"push_burst" validate:"gte=1"`

	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level string `json:"level" yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `json:"dir" yaml:"dir"`
	JSON  bool   `json:"json" yaml:"json"`
}

// Default returns the configuration reproducing the original demo grid:
// a first row holding a text cell, the Add Row and Add Cell buttons and an
// embedded "New Cell" container, an empty second row, then five text cells
// appended to every row.
func Default() Config {
	return Config{
		Grid: GridConfig{
			ViewportWidth:  120,
			ViewportHeight: 40,
			MinCellWidth:   14,
			MinCellHeight:  1,
			Theme:          model.DefaultTheme,
			SyncOnScroll:   true,
		},
		Dispatch: DispatchConfig{MaxCascade: dispatch.DefaultMaxCascade},
		Seed: SeedConfig{
			Rows: []RowSpec{
				{Cells: []CellSpec{
					{Kind: "text", Text: "Row 1, Cell 1"},
					{Kind: "button", Text: model.AddRowLabel, Action: "add_row"},
					{Kind: "button", Text: model.AddCellLabel, Action: "add_cell"},
					{Kind: "embedded", Text: "New Cell"},
				}},
				{},
			},
			FillCells: 5,
		},
		Server: ServerConfig{
			Addr:              "127.0.0.1:8088",
			PushRate:          10,
			PushBurst:         2,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Load reads configuration with priority: env > file > defaults.
//
// # Inputs
//
//   - path: YAML config file. Empty or missing uses the defaults.
//
// # Outputs
//
//   - Config: Merged configuration.
//   - error: Non-nil if the file exists but is unreadable or invalid.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	loadFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults, applies env overrides and validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	loadFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadFromEnv(cfg *Config) {
	if v := os.Getenv(EnvTheme); v != "" {
		cfg.Grid.Theme = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
}

// Validate checks the configuration against its validation tags.
//
// # Outputs
//
//   - error: Wraps ErrInvalidConfig and names the first failing field.
func (c Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, f.Namespace(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ModelConfig converts the grid section into a model.Config.
func (c Config) ModelConfig() model.Config {
	mc := model.Config{
		ViewportWidth:  c.Grid.ViewportWidth,
		ViewportHeight: c.Grid.ViewportHeight,
		MinCellSize:    model.Size{Width: c.Grid.MinCellWidth, Height: c.Grid.MinCellHeight},
		Theme:          c.Grid.Theme,
	}
	if c.Grid.SyncOnScroll {
		mc.OnScroll = model.SyncOnScroll
	}
	return mc
}

// LoggerConfig converts the logging section into a logging.Config.
// An unparseable level falls back to Info; Validate rejects those earlier.
func (c Config) LoggerConfig(service string) logging.Config {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.Config{
		Level:   level,
		LogDir:  c.Logging.Dir,
		Service: service,
		JSON:    c.Logging.JSON,
	}
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
