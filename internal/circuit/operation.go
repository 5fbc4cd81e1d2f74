package circuit

import (
	"errors"
	"fmt"
	"slices"
)

// Kind names an operator: "H", "X", "CX", "TOFFOLI", etc.
type Kind string

const (
	H       Kind = "H"
	X       Kind = "X"
	Y       Kind = "Y"
	Z       Kind = "Z"
	S       Kind = "S"
	T       Kind = "T"
	M       Kind = "M" // measurement
	CX      Kind = "CX"
	CZ      Kind = "CZ"
	SWAP    Kind = "SWAP"
	TOFFOLI Kind = "TOFFOLI"
)

// Operator describes a kind of gate: its display label and operand count.
type Operator struct {
	Kind  Kind
	Name  string // human-readable name shown in the palette
	Label string // short label drawn inside the gate box
	Arity int
}

// operators is the registry of known operator kinds, in palette order.
var operators = []Operator{
	{Kind: H, Name: "Hadamard", Label: "H", Arity: 1},
	{Kind: X, Name: "Pauli-X (NOT)", Label: "X", Arity: 1},
	{Kind: Y, Name: "Pauli-Y", Label: "Y", Arity: 1},
	{Kind: Z, Name: "Pauli-Z", Label: "Z", Arity: 1},
	{Kind: S, Name: "Phase (S)", Label: "S", Arity: 1},
	{Kind: T, Name: "T Gate", Label: "T", Arity: 1},
	{Kind: M, Name: "Measure", Label: "M", Arity: 1},
	{Kind: CX, Name: "CNOT", Label: "CX", Arity: 2},
	{Kind: CZ, Name: "Controlled-Z", Label: "CZ", Arity: 2},
	{Kind: SWAP, Name: "SWAP", Label: "SW", Arity: 2},
	{Kind: TOFFOLI, Name: "Toffoli (CCX)", Label: "CCX", Arity: 3},
}

// Operators returns the registered operators in palette order.
func Operators() []Operator {
	return slices.Clone(operators)
}

// Lookup returns the operator registered for kind.
func Lookup(kind Kind) (Operator, bool) {
	for _, op := range operators {
		if op.Kind == kind {
			return op, true
		}
	}
	return Operator{}, false
}

// MustLookup is like Lookup but panics on an unknown kind. An unknown kind is
// a static configuration mismatch, never a user action.
func MustLookup(kind Kind) Operator {
	op, ok := Lookup(kind)
	if !ok {
		panic(fmt.Sprintf("circuit: unknown operator kind %q", kind))
	}
	return op
}

// ID is the stable identity of a placed operation. Zero is reserved for the
// drop placeholder and never assigned to a committed operation.
type ID uint64

// Operation is one placed gate instance.
type Operation struct {
	ID       ID
	Kind     Kind
	Operands []int // qubit wires; for controlled gates the control comes first
}

var (
	ErrArity     = errors.New("operand count does not match operator arity")
	ErrDuplicate = errors.New("operands must be distinct")
	ErrOperand   = errors.New("operand out of range")
)

// Validate checks the operation against its operator and a wire count.
func (op Operation) Validate(qubits int) error {
	o, ok := Lookup(op.Kind)
	if !ok {
		return fmt.Errorf("operation %d: unknown operator kind %q", op.ID, op.Kind)
	}
	if len(op.Operands) != o.Arity {
		return fmt.Errorf("operation %d (%s): %w: got %d, want %d", op.ID, op.Kind, ErrArity, len(op.Operands), o.Arity)
	}
	for i, w := range op.Operands {
		if w < 0 || w >= qubits {
			return fmt.Errorf("operation %d (%s): %w: wire %d with %d qubits", op.ID, op.Kind, ErrOperand, w, qubits)
		}
		if slices.Contains(op.Operands[:i], w) {
			return fmt.Errorf("operation %d (%s): %w: wire %d repeated", op.ID, op.Kind, ErrDuplicate, w)
		}
	}
	return nil
}

// Span returns the inclusive row range the operation occupies.
func (op Operation) Span() (lo, hi int) {
	return slices.Min(op.Operands), slices.Max(op.Operands)
}

// References reports whether the operation acts on the given wire.
func (op Operation) References(wire int) bool {
	return slices.Contains(op.Operands, wire)
}

// Offsets returns the operands relative to the lowest one, the shape carried
// by a drag.
func (op Operation) Offsets() []int {
	lo, _ := op.Span()
	out := make([]int, len(op.Operands))
	for i, w := range op.Operands {
		out[i] = w - lo
	}
	return out
}

// Clone returns a deep copy of the operation.
func (op Operation) Clone() Operation {
	op.Operands = slices.Clone(op.Operands)
	return op
}

// Anchored builds an operation of the given kind whose operands are the
// offsets shifted down to start at row.
func Anchored(id ID, kind Kind, offsets []int, row int) Operation {
	operands := make([]int, len(offsets))
	for i, off := range offsets {
		operands[i] = row + off
	}
	return Operation{ID: id, Kind: kind, Operands: operands}
}

// SequentialOffsets returns [0, 1, ..., arity-1], the shape of a fresh gate
// taken from the palette.
func SequentialOffsets(kind Kind) []int {
	o := MustLookup(kind)
	offsets := make([]int, o.Arity)
	for i := range offsets {
		offsets[i] = i
	}
	return offsets
}

// Height returns the number of rows spanned by a set of relative offsets.
func Height(offsets []int) int {
	if len(offsets) == 0 {
		return 0
	}
	return slices.Max(offsets) - slices.Min(offsets) + 1
}

// Circuit is an immutable snapshot of the store: the wire count and the
// ordered operations. List order is the packing order.
type Circuit struct {
	Qubits int
	Ops    []Operation
}

// Clone returns a deep copy of the circuit.
func (c Circuit) Clone() Circuit {
	ops := make([]Operation, len(c.Ops))
	for i, op := range c.Ops {
		ops[i] = op.Clone()
	}
	return Circuit{Qubits: c.Qubits, Ops: ops}
}

// Validate checks every operation against the wire count.
func (c Circuit) Validate() error {
	if c.Qubits < 1 {
		return fmt.Errorf("circuit needs at least one qubit, got %d", c.Qubits)
	}
	for _, op := range c.Ops {
		if err := op.Validate(c.Qubits); err != nil {
			return err
		}
	}
	return nil
}
