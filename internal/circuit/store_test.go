package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreNeedsOneWire(t *testing.T) {
	assert.Equal(t, 1, NewStore(0).Qubits())
	assert.Equal(t, 4, NewStore(4).Qubits())
}

func TestStoreAdd(t *testing.T) {
	s := NewStore(3)

	a, err := s.Add(H, 0)
	require.NoError(t, err)
	b, err := s.Add(CX, 0, 2)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotZero(t, a.ID)

	_, err = s.Add(CX, 1)
	assert.ErrorIs(t, err, ErrArity)
	_, err = s.Add(CX, 1, 1)
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = s.Add(H, 3)
	assert.ErrorIs(t, err, ErrOperand)
	assert.Equal(t, 2, s.Len())
}

func TestStoreIdentitiesNeverReused(t *testing.T) {
	s := NewStore(1)
	a, err := s.Add(H, 0)
	require.NoError(t, err)
	_, ok := s.Remove(a.ID)
	require.True(t, ok)
	b, err := s.Add(H, 0)
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := NewStore(2)
	_, err := s.Add(CX, 0, 1)
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Ops[0].Operands[0] = 1
	again := s.Snapshot()
	assert.Equal(t, []int{0, 1}, again.Ops[0].Operands)
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(2)
	a, _ := s.Add(H, 0)
	b, _ := s.Add(X, 1)

	got, ok := s.Remove(a.ID)
	require.True(t, ok)
	assert.Equal(t, H, got.Kind)
	_, ok = s.Remove(a.ID)
	assert.False(t, ok)

	snap := s.Snapshot()
	require.Len(t, snap.Ops, 1)
	assert.Equal(t, b.ID, snap.Ops[0].ID)
}

func TestStoreCommit(t *testing.T) {
	s := NewStore(2)
	a, _ := s.Add(H, 0)

	err := s.Commit([]Operation{op(7, X, 1), op(a.ID, H, 0)})
	require.NoError(t, err)
	snap := s.Snapshot()
	require.Len(t, snap.Ops, 2)
	assert.Equal(t, ID(7), snap.Ops[0].ID)
	assert.Greater(t, s.NextID(), ID(7), "committed identities are never handed out again")
}

func TestStoreCommitRejects(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
	}{
		{"placeholder", []Operation{op(0, H, 0)}},
		{"duplicate identity", []Operation{op(1, H, 0), op(1, X, 1)}},
		{"bad operand", []Operation{op(1, H, 0), op(2, H, 5)}},
		{"bad arity", []Operation{op(1, CX, 0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(2)
			_, err := s.Add(Z, 1)
			require.NoError(t, err)
			before := s.Snapshot()

			assert.Error(t, s.Commit(tt.ops))
			assert.Equal(t, before, s.Snapshot())
		})
	}
}

func TestStoreCommitFailureKeepsIdentityCounter(t *testing.T) {
	s := NewStore(1)
	require.Error(t, s.Commit([]Operation{op(50, H, 0), op(51, H, 3)}))
	assert.Equal(t, ID(1), s.NextID())
}

func TestStoreRetarget(t *testing.T) {
	s := NewStore(3)
	cx, _ := s.Add(CX, 0, 1)

	require.NoError(t, s.Retarget(cx.ID, 0, 2))
	got, ok := s.Get(cx.ID)
	require.True(t, ok)
	assert.Equal(t, []int{2, 1}, got.Operands)

	assert.ErrorIs(t, s.Retarget(cx.ID, 0, 1), ErrDuplicate)
	assert.ErrorIs(t, s.Retarget(cx.ID, 1, 3), ErrOperand)
	assert.Error(t, s.Retarget(cx.ID, 2, 0))
	assert.ErrorIs(t, s.Retarget(99, 0, 0), ErrNotFound)

	got, _ = s.Get(cx.ID)
	assert.Equal(t, []int{2, 1}, got.Operands)
}

func TestStoreClear(t *testing.T) {
	s := NewStore(3)
	_, _ = s.Add(H, 0)
	s.Clear()
	assert.Zero(t, s.Len())
	assert.Equal(t, 3, s.Qubits())
}
