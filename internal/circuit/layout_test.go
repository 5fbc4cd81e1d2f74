package circuit

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGeometry mirrors the terminal composer: three lines per wire, eleven
// characters per column.
var testGeometry = Geometry{
	OriginX: 9, OriginY: 7,
	MarginX: 5, MarginY: 1,
	PitchX: 11, PitchY: 3,
}

func op(id ID, kind Kind, operands ...int) Operation {
	return Operation{ID: id, Kind: kind, Operands: operands}
}

func columns(placed []Placed) map[ID]int {
	out := make(map[ID]int, len(placed))
	for _, p := range placed {
		out[p.Op.ID] = p.Column
	}
	return out
}

func randomCircuit(rng *rand.Rand, qubits, n int) Circuit {
	kinds := []Kind{H, X, CX, CZ, TOFFOLI, M}
	c := Circuit{Qubits: qubits}
	for i := 0; i < n; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		arity := MustLookup(kind).Arity
		if arity > qubits {
			kind, arity = H, 1
		}
		wires := rng.Perm(qubits)[:arity]
		c.Ops = append(c.Ops, op(ID(i+1), kind, wires...))
	}
	return c
}

func TestPackGreedy(t *testing.T) {
	c := Circuit{Qubits: 3, Ops: []Operation{
		op(1, H, 0),
		op(2, H, 2),
		op(3, CX, 0, 2), // spans row 1 too
		op(4, X, 1),
		op(5, X, 1),
	}}
	got := columns(Pack(c))
	assert.Equal(t, map[ID]int{1: 0, 2: 0, 3: 1, 4: 2, 5: 3}, got)
}

func TestPackSortedStable(t *testing.T) {
	c := Circuit{Qubits: 2, Ops: []Operation{
		op(1, H, 0),
		op(2, H, 0),
		op(3, H, 1),
	}}
	placed := Pack(c)
	require.Len(t, placed, 3)
	assert.Equal(t, ID(1), placed[0].Op.ID)
	assert.Equal(t, ID(3), placed[1].Op.ID, "tie at column 0 keeps list order")
	assert.Equal(t, ID(2), placed[2].Op.ID)
}

func TestPackIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		c := randomCircuit(rng, 5, 20)
		assert.Equal(t, Pack(c), Pack(c))
	}
}

func TestPackAppendStable(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		c := randomCircuit(rng, 4, 15)
		before := columns(Pack(c))
		extra := randomCircuit(rng, 4, 1).Ops[0]
		extra.ID = 100
		c.Ops = append(c.Ops, extra)
		after := columns(Pack(c))
		for id, col := range before {
			assert.Equal(t, col, after[id], "operation %d moved", id)
		}
	}
}

func TestPackNoOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		placed := Pack(randomCircuit(rng, 5, 25))
		for a := range placed {
			for b := a + 1; b < len(placed); b++ {
				alo, ahi := placed[a].Op.Span()
				blo, bhi := placed[b].Op.Span()
				if alo <= bhi && blo <= ahi {
					assert.NotEqual(t, placed[a].Column, placed[b].Column,
						"ops %d and %d overlap", placed[a].Op.ID, placed[b].Op.ID)
				}
			}
		}
	}
}

func TestCellAtRoundTrip(t *testing.T) {
	for row := 0; row < 5; row++ {
		for col := 0; col < 8; col++ {
			x, y := testGeometry.Center(Cell{Row: row, Column: col})
			got, ok := testGeometry.CellAt(x, y)
			require.True(t, ok)
			assert.Equal(t, Cell{Row: row, Column: col}, got)
		}
	}
}

func TestCellAtSnapsToNearest(t *testing.T) {
	x, y := testGeometry.Center(Cell{Row: 1, Column: 2})
	tests := []struct {
		dx, dy int
		want   Cell
	}{
		{0, -1, Cell{Row: 1, Column: 2}},
		{0, 1, Cell{Row: 1, Column: 2}},
		{0, 2, Cell{Row: 2, Column: 2}},
		{-5, 0, Cell{Row: 1, Column: 2}},
		{5, 0, Cell{Row: 1, Column: 2}},
		{6, 0, Cell{Row: 1, Column: 3}},
		{-6, 0, Cell{Row: 1, Column: 1}},
	}
	for _, tt := range tests {
		got, ok := testGeometry.CellAt(x+tt.dx, y+tt.dy)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "offset (%d,%d)", tt.dx, tt.dy)
	}
}

func TestCellAtOffCanvas(t *testing.T) {
	g := testGeometry
	g.Width, g.Height = 44, 9
	_, ok := g.CellAt(g.OriginX-1, g.OriginY+1)
	assert.False(t, ok)
	_, ok = g.CellAt(g.OriginX+1, g.OriginY-1)
	assert.False(t, ok)
	_, ok = g.CellAt(g.OriginX+g.Width, g.OriginY+1)
	assert.False(t, ok)
	_, ok = g.CellAt(g.OriginX+1, g.OriginY+g.Height)
	assert.False(t, ok)
}

func TestTargetReverseForwardConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 30; i++ {
		c := randomCircuit(rng, 5, 20)
		for _, p := range Pack(c) {
			x, y := testGeometry.Center(p.Cell())
			got, ok := Target(c, testGeometry, x, y, p.Op.Offsets())
			require.True(t, ok)
			assert.Equal(t, p.Cell(), got, "operation %d", p.Op.ID)
		}
	}
}

func TestTargetRejectsSpanPastLastWire(t *testing.T) {
	c := Circuit{Qubits: 3}
	x, y := testGeometry.Center(Cell{Row: 2, Column: 0})
	_, ok := Target(c, testGeometry, x, y, SequentialOffsets(CX))
	assert.False(t, ok)

	x, y = testGeometry.Center(Cell{Row: 1, Column: 0})
	cell, ok := Target(c, testGeometry, x, y, SequentialOffsets(CX))
	require.True(t, ok)
	assert.Equal(t, Cell{Row: 1, Column: 0}, cell)
}

func TestTargetClampsToFrontier(t *testing.T) {
	c := Circuit{Qubits: 2, Ops: []Operation{op(1, H, 0), op(2, H, 0)}}
	x, y := testGeometry.Center(Cell{Row: 0, Column: 7})
	cell, ok := Target(c, testGeometry, x, y, []int{0})
	require.True(t, ok)
	assert.Equal(t, Cell{Row: 0, Column: 2}, cell)

	x, y = testGeometry.Center(Cell{Row: 1, Column: 7})
	cell, ok = Target(c, testGeometry, x, y, []int{0})
	require.True(t, ok)
	assert.Equal(t, Cell{Row: 1, Column: 0}, cell)
}

func TestInsertIntoEmptyWire(t *testing.T) {
	c := Circuit{Qubits: 3}
	ops := Insert(c, op(1, H, 1), Cell{Row: 1, Column: 0})
	placed := Pack(Circuit{Qubits: 3, Ops: ops})
	require.Len(t, placed, 1)
	assert.Equal(t, []int{1}, placed[0].Op.Operands)
	assert.Equal(t, 0, placed[0].Column)
}

func TestInsertAfterOccupiedColumn(t *testing.T) {
	c := Circuit{Qubits: 1, Ops: []Operation{op(1, H, 0)}}
	x, y := testGeometry.Center(Cell{Row: 0, Column: 3})
	cell, ok := Target(c, testGeometry, x, y, []int{0})
	require.True(t, ok)
	got := columns(Pack(Circuit{Qubits: 1, Ops: Insert(c, op(2, X, 0), cell)}))
	assert.Equal(t, map[ID]int{1: 0, 2: 1}, got)
}

func TestInsertShiftsContainedOperations(t *testing.T) {
	c := Circuit{Qubits: 2, Ops: []Operation{op(1, H, 0), op(2, H, 1), op(3, X, 0)}}
	ops := Insert(c, op(4, CX, 0, 1), Cell{Row: 0, Column: 0})
	got := columns(Pack(Circuit{Qubits: 2, Ops: ops}))
	assert.Equal(t, map[ID]int{4: 0, 1: 1, 2: 1, 3: 2}, got)
}

func TestInsertPastStraddlingOperation(t *testing.T) {
	c := Circuit{Qubits: 2, Ops: []Operation{op(1, CX, 0, 1)}}
	ops := Insert(c, op(2, H, 0), Cell{Row: 0, Column: 0})
	got := columns(Pack(Circuit{Qubits: 2, Ops: ops}))
	assert.Equal(t, map[ID]int{1: 0, 2: 1}, got)
}

func TestInsertBetweenColumns(t *testing.T) {
	c := Circuit{Qubits: 1, Ops: []Operation{op(1, H, 0), op(2, X, 0), op(3, Z, 0)}}
	ops := Insert(c, op(4, Y, 0), Cell{Row: 0, Column: 1})
	got := columns(Pack(Circuit{Qubits: 1, Ops: ops}))
	assert.Equal(t, map[ID]int{1: 0, 4: 1, 2: 2, 3: 3}, got)
}

func TestInsertKeepsDisjointRowsInPlace(t *testing.T) {
	c := Circuit{Qubits: 3, Ops: []Operation{op(1, H, 0), op(2, H, 2)}}
	ops := Insert(c, op(3, X, 0), Cell{Row: 0, Column: 0})
	got := columns(Pack(Circuit{Qubits: 3, Ops: ops}))
	assert.Equal(t, map[ID]int{3: 0, 1: 1, 2: 0}, got)
}

func TestInsertBesideStraddlingAndContained(t *testing.T) {
	straddling := op(1, CX, 1, 2)
	contained := op(2, H, 0)
	tests := []struct {
		name string
		ops  []Operation
	}{
		{"straddling first", []Operation{straddling, contained}},
		{"contained first", []Operation{contained, straddling}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Circuit{Qubits: 3, Ops: tt.ops}
			ops := Insert(c, op(3, CX, 0, 1), Cell{Row: 0, Column: 0})
			got := columns(Pack(Circuit{Qubits: 3, Ops: ops}))
			assert.Equal(t, map[ID]int{1: 0, 2: 0, 3: 1}, got)
		})
	}
}

func TestInsertNeverMovesEarlierOrStraddlingOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 200; i++ {
		c := randomCircuit(rng, 5, 12)
		drag := randomCircuit(rng, 5, 1).Ops[0]
		drag.ID = 100
		lo, hi := drag.Span()
		front := Frontier(c)
		limit := 0
		for r := lo; r <= hi; r++ {
			limit = max(limit, front[r])
		}
		at := Cell{Row: lo, Column: rng.Intn(limit + 1)}

		before := columns(Pack(c))
		after := columns(Pack(Circuit{Qubits: c.Qubits, Ops: Insert(c, drag, at)}))
		require.Len(t, after, len(before)+1)
		ghost := after[drag.ID]
		for _, o := range c.Ops {
			olo, ohi := o.Span()
			if before[o.ID] < ghost {
				assert.Equal(t, before[o.ID], after[o.ID], "operation %d left of the drop moved", o.ID)
			}
			if olo <= hi && lo <= ohi && (olo < lo || ohi > hi) {
				assert.Equal(t, before[o.ID], after[o.ID], "straddling operation %d moved", o.ID)
			}
		}
	}
}

func TestPreviewWithoutTargetIsUnchanged(t *testing.T) {
	c := Circuit{Qubits: 2, Ops: []Operation{op(1, H, 0)}}
	got := Preview(c, testGeometry, X, []int{0}, 0, 0)
	assert.Equal(t, Pack(c), got)
	_, ok := Ghost(got)
	assert.False(t, ok)
}

func TestPreviewMatchesInsert(t *testing.T) {
	c := Circuit{Qubits: 3, Ops: []Operation{op(1, H, 0), op(2, CX, 1, 2), op(3, X, 0)}}
	x, y := testGeometry.Center(Cell{Row: 0, Column: 1})
	before := c.Clone()

	preview := Preview(c, testGeometry, CX, []int{0, 1}, x, y)
	assert.Equal(t, before, c, "preview must not mutate the circuit")

	ghost, ok := Ghost(preview)
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, ghost.Op.Operands)

	cell, ok := Target(c, testGeometry, x, y, []int{0, 1})
	require.True(t, ok)
	committed := Pack(Circuit{Qubits: 3, Ops: Insert(c, Anchored(9, CX, []int{0, 1}, cell.Row), cell)})
	require.Len(t, committed, len(preview))
	for i := range preview {
		assert.Equal(t, preview[i].Column, committed[i].Column)
		if preview[i].Ghost {
			assert.Equal(t, ID(9), committed[i].Op.ID)
		}
	}
}

func TestOperationAt(t *testing.T) {
	placed := Pack(Circuit{Qubits: 3, Ops: []Operation{op(1, CX, 0, 2), op(2, H, 1)}})
	p, ok := OperationAt(placed, Cell{Row: 1, Column: 0})
	require.True(t, ok)
	assert.Equal(t, ID(1), p.Op.ID, "span covers the row between control and target")

	p, ok = OperationAt(placed, Cell{Row: 1, Column: 1})
	require.True(t, ok)
	assert.Equal(t, ID(2), p.Op.ID)

	_, ok = OperationAt(placed, Cell{Row: 0, Column: 1})
	assert.False(t, ok)
}
