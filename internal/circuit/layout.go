package circuit

import (
	"slices"
)

// Placed is an operation with its derived column. Ghost marks the drop
// placeholder of an active drag.
type Placed struct {
	Op     Operation
	Column int
	Ghost  bool
}

// Cell returns the grid cell of the placed operation's top row.
func (p Placed) Cell() Cell {
	lo, _ := p.Op.Span()
	return Cell{Row: lo, Column: p.Column}
}

// packer assigns columns greedily: an operation goes to the first column
// that is free on every row of its span.
type packer struct {
	next []int // first free column per wire
}

func newPacker(qubits int) *packer {
	return &packer{next: make([]int, qubits)}
}

// column returns the first column free on every row in [lo, hi].
func (p *packer) column(lo, hi int) int {
	col := 0
	for r := lo; r <= hi; r++ {
		col = max(col, p.next[r])
	}
	return col
}

// occupy marks [lo, hi] as used up to and including col.
func (p *packer) occupy(lo, hi, col int) {
	for r := lo; r <= hi; r++ {
		p.next[r] = col + 1
	}
}

func (p *packer) place(op Operation) int {
	lo, hi := op.Span()
	col := p.column(lo, hi)
	p.occupy(lo, hi, col)
	return col
}

// Pack assigns each operation a column, processing the list in order, and
// returns the operations sorted by column. Ties keep list order. Adding an
// operation to the end of the list never moves an existing one.
func Pack(c Circuit) []Placed {
	p := newPacker(c.Qubits)
	placed := make([]Placed, len(c.Ops))
	for i, op := range c.Ops {
		placed[i] = Placed{Op: op, Column: p.place(op), Ghost: op.ID == 0}
	}
	slices.SortStableFunc(placed, func(a, b Placed) int {
		return a.Column - b.Column
	})
	return placed
}

// Frontier returns, per wire, the first column after the last operation
// packed on it.
func Frontier(c Circuit) []int {
	p := newPacker(c.Qubits)
	for _, op := range c.Ops {
		p.place(op)
	}
	return p.next
}

// OperationAt returns the placed operation whose column is cell.Column and
// whose span covers cell.Row.
func OperationAt(placed []Placed, cell Cell) (Placed, bool) {
	for _, p := range placed {
		if p.Column != cell.Column {
			continue
		}
		lo, hi := p.Op.Span()
		if cell.Row >= lo && cell.Row <= hi {
			return p, true
		}
	}
	return Placed{}, false
}

// Target maps a pointer position to the cell a dragged operation with the
// given relative offsets would be dropped at. The row must leave room for
// the whole span; the column is clamped to the packed frontier of the rows
// involved, so a drop never lands past the end of the circuit.
func Target(c Circuit, g Geometry, x, y int, offsets []int) (Cell, bool) {
	cell, ok := g.CellAt(x, y)
	if !ok {
		return Cell{}, false
	}
	height := Height(offsets)
	if height == 0 || cell.Row+height > c.Qubits {
		return Cell{}, false
	}
	front := Frontier(c)
	limit := 0
	for r := cell.Row; r < cell.Row+height; r++ {
		limit = max(limit, front[r])
	}
	cell.Column = min(cell.Column, limit)
	return cell, true
}

// Insert returns the operation list with op inserted at or after at.Column.
// The ghost's column is resolved first: starting at at.Column, op is tried
// right before the first operation in column order that reaches the
// candidate column and lies entirely within op's span. The first candidate
// whose packing moves nothing but such contained operations, all at or after
// op's own column, wins. Operations left of op keep their columns, and an
// operation that straddles op's span is never displaced: op moves past it to
// the next column where its whole span is clear. If no candidate fits, op is
// appended, which moves nothing.
//
// Insert is the single resolution used for both the drag preview and the
// drop, so Pack of the result is exactly what the preview showed.
func Insert(c Circuit, op Operation, at Cell) []Operation {
	placed := Pack(c)
	for col := max(at.Column, 0); ; col++ {
		if ops, ok := insertBefore(c.Qubits, placed, op, col); ok {
			return ops
		}
	}
}

// insertBefore puts op ahead of the first placed operation at or after col
// that lies within op's span, and reports whether the repacked result only
// shifts contained operations at or after op's column.
func insertBefore(qubits int, placed []Placed, op Operation, col int) ([]Operation, bool) {
	lo, hi := op.Span()
	within := func(o Operation) bool {
		olo, ohi := o.Span()
		return olo >= lo && ohi <= hi
	}
	i := slices.IndexFunc(placed, func(p Placed) bool {
		return p.Column >= col && within(p.Op)
	})
	if i < 0 {
		i = len(placed)
	}

	p := newPacker(qubits)
	out := make([]Operation, 0, len(placed)+1)
	for _, pl := range placed[:i] {
		p.place(pl.Op)
		out = append(out, pl.Op)
	}
	ghost := p.place(op)
	out = append(out, op)
	for _, pl := range placed[i:] {
		moved := p.place(pl.Op) != pl.Column
		if moved && (pl.Column < ghost || !within(pl.Op)) {
			return nil, false
		}
		out = append(out, pl.Op)
	}
	return out, true
}

// Preview returns the render list for a drag in progress: the packed circuit
// plus a ghost at the drop target, with real operations shifted to make room.
// Without a valid target the packed circuit is returned unchanged. Preview
// never mutates c.
func Preview(c Circuit, g Geometry, kind Kind, offsets []int, x, y int) []Placed {
	cell, ok := Target(c, g, x, y, offsets)
	if !ok {
		return Pack(c)
	}
	ghost := Anchored(0, kind, offsets, cell.Row)
	return Pack(Circuit{Qubits: c.Qubits, Ops: Insert(c, ghost, cell)})
}

// Ghost returns the placeholder entry of a render list, if any.
func Ghost(placed []Placed) (Placed, bool) {
	i := slices.IndexFunc(placed, func(p Placed) bool { return p.Ghost })
	if i < 0 {
		return Placed{}, false
	}
	return placed[i], true
}
