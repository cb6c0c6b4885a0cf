// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package event

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxTextBytes bounds the replacement text carried by an edit envelope.
const MaxTextBytes = 4096

// ErrInvalidEnvelope wraps every envelope validation failure.
var ErrInvalidEnvelope = errors.New("invalid event envelope")

// envelopeValidate is the validator instance for envelopes.
var envelopeValidate = validator.New()

// Envelope is the serialised form of an Event, used by replay scripts and
// the HTTP server.
//
// # Validation
//
// Uses go-playground/validator:
//   - Type: required, one of the declared Type values
//   - Row: required for add_cell, activate and edit; never negative
//   - Cell: required for activate and edit; never negative
//   - Text: at most MaxTextBytes bytes
type Envelope struct {
	Type Type    `json:"type" yaml:"type" validate:"required,oneof=add_row add_cell activate edit scroll sync"`
	Row  *int    `json:"row,omitempty" yaml:"row,omitempty" validate:"required_if=Type add_cell,required_if=Type activate,required_if=Type edit,omitempty,min=0"`
	Cell *int    `json:"cell,omitempty" yaml:"cell,omitempty" validate:"required_if=Type activate,required_if=Type edit,omitempty,min=0"`
	Text string  `json:"text,omitempty" yaml:"text,omitempty" validate:"max=4096"`
	X    float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y    float64 `json:"y,omitempty" yaml:"y,omitempty"`
}

// Validate checks the envelope against its validation tags.
func (e Envelope) Validate() error {
	if err := envelopeValidate.Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: field %s failed %q", ErrInvalidEnvelope, f.Field(), f.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return nil
}

// Decode validates the envelope and converts it into an Event.
func (e Envelope) Decode() (Event, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	switch e.Type {
	case TypeAddRow:
		return AddRowRequested{}, nil
	case TypeAddCell:
		return AddCellRequested{Row: *e.Row}, nil
	case TypeActivate:
		return CellActivated{Row: *e.Row, Cell: *e.Cell}, nil
	case TypeEdit:
		return CellEdited{Row: *e.Row, Cell: *e.Cell, Text: e.Text}, nil
	case TypeScroll:
		return ScrollOffsetChanged{Offset: Offset{X: e.X, Y: e.Y}}, nil
	case TypeSync:
		return SyncRequested{}, nil
	}
	return nil, fmt.Errorf("%w: type %q", ErrInvalidEnvelope, e.Type)
}

// Encode converts an Event into its envelope.
func Encode(ev Event) Envelope {
	env := Envelope{Type: ev.Type()}
	switch ev := ev.(type) {
	case AddCellRequested:
		env.Row = intPtr(ev.Row)
	case CellActivated:
		env.Row, env.Cell = intPtr(ev.Row), intPtr(ev.Cell)
	case CellEdited:
		env.Row, env.Cell = intPtr(ev.Row), intPtr(ev.Cell)
		env.Text = ev.Text
	case ScrollOffsetChanged:
		env.X, env.Y = ev.Offset.X, ev.Offset.Y
	}
	return env
}

// DecodeAll decodes a sequence of envelopes, stopping at the first invalid one.
func DecodeAll(envs []Envelope) ([]Event, error) {
	out := make([]Event, 0, len(envs))
	for i, env := range envs {
		ev, err := env.Decode()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func intPtr(v int) *int { return &v }
