package circuit

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrLastWire  = errors.New("cannot remove the last wire")
	ErrWireRange = errors.New("wire index out of range")
)

// AddWire appends a wire at the highest index. Existing operands are untouched.
func (s *Store) AddWire() {
	s.qubits++
}

// RemoveWire deletes wire index. Operations acting on it are deleted outright,
// never reduced in arity; operands above it shift down by one. Removing the
// last remaining wire is rejected and leaves the store unchanged. It returns
// the number of operations that were deleted.
func (s *Store) RemoveWire(index int) (int, error) {
	if s.qubits <= 1 {
		return 0, ErrLastWire
	}
	if index < 0 || index >= s.qubits {
		return 0, fmt.Errorf("remove wire %d of %d: %w", index, s.qubits, ErrWireRange)
	}

	before := len(s.ops)
	s.ops = slices.DeleteFunc(s.ops, func(op Operation) bool {
		return op.References(index)
	})
	for i := range s.ops {
		for j, w := range s.ops[i].Operands {
			if w > index {
				s.ops[i].Operands[j] = w - 1
			}
		}
	}
	s.qubits--
	return before - len(s.ops), nil
}
