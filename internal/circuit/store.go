package circuit

import (
	"errors"
	"fmt"
	"slices"
)

var ErrNotFound = errors.New("operation not found")

// Store holds the placed operations and the wire count. It is the single
// source of truth that the layout, the code panel and the simulator derive
// from. A Store is owned by one event loop and is not safe for concurrent use.
type Store struct {
	qubits int
	ops    []Operation
	lastID ID
}

// NewStore creates an empty store with the given number of wires (at least one).
func NewStore(qubits int) *Store {
	return &Store{qubits: max(qubits, 1)}
}

// Qubits returns the wire count.
func (s *Store) Qubits() int { return s.qubits }

// Len returns the number of placed operations.
func (s *Store) Len() int { return len(s.ops) }

// Snapshot returns a deep copy of the current circuit.
func (s *Store) Snapshot() Circuit {
	return Circuit{Qubits: s.qubits, Ops: s.ops}.Clone()
}

// NextID allocates a fresh identity. Identities are never reused, even after
// the operation that held one is deleted.
func (s *Store) NextID() ID {
	s.lastID++
	return s.lastID
}

// Add appends a new operation with a fresh identity.
func (s *Store) Add(kind Kind, operands ...int) (Operation, error) {
	op := Operation{Kind: kind, Operands: slices.Clone(operands)}
	if err := op.Validate(s.qubits); err != nil {
		return Operation{}, err
	}
	op.ID = s.NextID()
	s.ops = append(s.ops, op)
	return op.Clone(), nil
}

// Get returns the operation with the given identity.
func (s *Store) Get(id ID) (Operation, bool) {
	i := s.index(id)
	if i < 0 {
		return Operation{}, false
	}
	return s.ops[i].Clone(), true
}

// Remove deletes the operation with the given identity and returns it.
func (s *Store) Remove(id ID) (Operation, bool) {
	i := s.index(id)
	if i < 0 {
		return Operation{}, false
	}
	op := s.ops[i]
	s.ops = slices.Delete(s.ops, i, i+1)
	return op, true
}

// Commit replaces the operation list with a resolved edit. The list is
// validated as a whole; on error the store is left unchanged.
func (s *Store) Commit(ops []Operation) error {
	seen := make(map[ID]bool, len(ops))
	next := make([]Operation, len(ops))
	last := s.lastID
	for i, op := range ops {
		if op.ID == 0 {
			return fmt.Errorf("commit: operation %d has no identity", i)
		}
		if seen[op.ID] {
			return fmt.Errorf("commit: identity %d used twice", op.ID)
		}
		seen[op.ID] = true
		if err := op.Validate(s.qubits); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		last = max(last, op.ID)
		next[i] = op.Clone()
	}
	s.ops = next
	s.lastID = last
	return nil
}

// Retarget moves one operand of an operation to another wire, keeping its
// identity and list position. This is how a control dot is dragged to a
// different wire.
func (s *Store) Retarget(id ID, operand, wire int) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("retarget %d: %w", id, ErrNotFound)
	}
	op := s.ops[i].Clone()
	if operand < 0 || operand >= len(op.Operands) {
		return fmt.Errorf("retarget %d: operand index %d out of range", id, operand)
	}
	op.Operands[operand] = wire
	if err := op.Validate(s.qubits); err != nil {
		return fmt.Errorf("retarget: %w", err)
	}
	s.ops[i] = op
	return nil
}

// Clear removes every operation but keeps the wires.
func (s *Store) Clear() {
	s.ops = nil
}

func (s *Store) index(id ID) int {
	return slices.IndexFunc(s.ops, func(op Operation) bool { return op.ID == id })
}
