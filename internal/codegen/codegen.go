// Package codegen renders a circuit as source text in one of the supported
// assembly dialects.
package codegen

import (
	"errors"
	"fmt"
	"strings"

	"qcomposer/internal/circuit"
)

// Dialect names an output language.
type Dialect string

const (
	OpenQASM Dialect = "openqasm"
	Qiskit   Dialect = "qiskit"
	Quil     Dialect = "quil"
)

var ErrUnknownDialect = errors.New("unknown dialect")

// Renderer turns the ordered operation list into source text.
type Renderer interface {
	Dialect() Dialect
	Title() string     // display name, e.g. "OPENQASM 2.0"
	Extension() string // file extension used when saving
	Render(c circuit.Circuit) string
}

var renderers = []Renderer{qasmRenderer{}, qiskitRenderer{}, quilRenderer{}}

// Dialects returns the supported dialects in display order.
func Dialects() []Dialect {
	out := make([]Dialect, len(renderers))
	for i, r := range renderers {
		out[i] = r.Dialect()
	}
	return out
}

// For returns the renderer for a dialect.
func For(d Dialect) (Renderer, error) {
	for _, r := range renderers {
		if r.Dialect() == d {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, string(d))
}

// Parse accepts a dialect name case-insensitively.
func Parse(s string) (Dialect, error) {
	d := Dialect(strings.ToLower(strings.TrimSpace(s)))
	if _, err := For(d); err != nil {
		return "", err
	}
	return d, nil
}

// Next returns the dialect after d in display order, wrapping around.
func Next(d Dialect) Dialect {
	for i, r := range renderers {
		if r.Dialect() == d {
			return renderers[(i+1)%len(renderers)].Dialect()
		}
	}
	return renderers[0].Dialect()
}

// Render is a shorthand for For(d) followed by Render.
func Render(d Dialect, c circuit.Circuit) (string, error) {
	r, err := For(d)
	if err != nil {
		return "", err
	}
	return r.Render(c), nil
}

// ordered returns the operations in the order they appear on screen, which
// is the order every dialect emits them in.
func ordered(c circuit.Circuit) []circuit.Operation {
	placed := circuit.Pack(c)
	ops := make([]circuit.Operation, len(placed))
	for i, p := range placed {
		ops[i] = p.Op
	}
	return ops
}
