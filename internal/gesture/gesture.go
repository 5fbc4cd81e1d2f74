// Package gesture implements the drag-and-drop state machine of the composer.
//
// A gesture starts either from the palette (a fresh gate) or by lifting a
// placed gate off the circuit. While it is active every pointer move
// re-derives a preview with a ghost at the drop target; releasing commits the
// same insertion the preview showed.
package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"qcomposer/internal/circuit"
)

// State is the controller's position in the gesture state machine.
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrBusy        = errors.New("a drag is already in progress")
	ErrNoOperation = errors.New("no operation under the pointer")
)

// Tracker owns the global pointer listeners of a gesture. Attach is called
// once when a drag starts and Detach once when it ends, whichever way it ends.
type Tracker interface {
	Attach()
	Detach()
}

type nopTracker struct{}

func (nopTracker) Attach() {}
func (nopTracker) Detach() {}

// Drag is the state of an active gesture.
type Drag struct {
	Kind    circuit.Kind
	Offsets []int      // operand rows relative to the top of the span
	ID      circuit.ID // zero for a gate taken from the palette
	Lifted  bool
	X, Y    int // latest pointer position
	GrabRow int // row within the span the pointer holds
}

// Result describes how a gesture ended.
type Result struct {
	State State
	Op    circuit.Operation // committed operation, set when State is Dropped
	Cell  circuit.Cell
}

// Controller drives gestures against a store. Like the store, it belongs to a
// single event loop.
type Controller struct {
	store   *circuit.Store
	geom    circuit.Geometry
	tracker Tracker
	log     *slog.Logger

	state State
	drag  *Drag
}

// New creates an idle controller. A nil tracker or logger is replaced by a
// no-op one.
func New(store *circuit.Store, geom circuit.Geometry, tracker Tracker, log *slog.Logger) *Controller {
	if tracker == nil {
		tracker = nopTracker{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Controller{store: store, geom: geom, tracker: tracker, log: log}
}

// State returns the current state. Dropped and Cancelled persist until the
// next gesture begins.
func (c *Controller) State() State { return c.state }

// Active reports whether a drag is in progress.
func (c *Controller) Active() bool { return c.state == Dragging }

// Drag returns a copy of the active drag.
func (c *Controller) Drag() (Drag, bool) {
	if c.drag == nil {
		return Drag{}, false
	}
	d := *c.drag
	d.Offsets = slices.Clone(d.Offsets)
	return d, true
}

// Geometry returns the geometry used for pointer mapping.
func (c *Controller) Geometry() circuit.Geometry { return c.geom }

// SetGeometry replaces the pointer mapping, e.g. after a resize or scroll.
func (c *Controller) SetGeometry(g circuit.Geometry) { c.geom = g }

// BeginPalette starts dragging a fresh gate of the given kind. Its operands
// are consecutive rows starting at the pointer.
func (c *Controller) BeginPalette(kind circuit.Kind, x, y int) error {
	if c.Active() {
		return ErrBusy
	}
	c.start(&Drag{
		Kind:    kind,
		Offsets: circuit.SequentialOffsets(kind),
		X:       x,
		Y:       y,
	})
	c.log.Debug("Drag started", "source", "palette", "kind", kind)
	return nil
}

// BeginLift picks up the placed operation under the pointer. The operation is
// removed from the store immediately and keeps its identity and shape.
func (c *Controller) BeginLift(x, y int) error {
	if c.Active() {
		return ErrBusy
	}
	cell, ok := c.geom.CellAt(x, y)
	if !ok {
		return ErrNoOperation
	}
	placed, ok := circuit.OperationAt(circuit.Pack(c.store.Snapshot()), cell)
	if !ok {
		return ErrNoOperation
	}
	op, ok := c.store.Remove(placed.Op.ID)
	if !ok {
		return fmt.Errorf("lift %d: %w", placed.Op.ID, circuit.ErrNotFound)
	}
	lo, _ := op.Span()
	c.start(&Drag{
		Kind:    op.Kind,
		Offsets: op.Offsets(),
		ID:      op.ID,
		Lifted:  true,
		X:       x,
		Y:       y,
		GrabRow: cell.Row - lo,
	})
	c.log.Debug("Drag started", "source", "lift", "kind", op.Kind, "id", op.ID)
	return nil
}

// Move records the latest pointer position. Moves outside a drag are ignored.
func (c *Controller) Move(x, y int) {
	if !c.Active() {
		return
	}
	c.drag.X, c.drag.Y = x, y
}

// Target returns the cell the active drag would drop at.
func (c *Controller) Target() (circuit.Cell, bool) {
	if !c.Active() {
		return circuit.Cell{}, false
	}
	x, y := c.anchor()
	return circuit.Target(c.store.Snapshot(), c.geom, x, y, c.drag.Offsets)
}

// Preview returns the render list: the packed circuit, plus a ghost at the
// drop target while a drag with a valid target is in progress.
func (c *Controller) Preview() []circuit.Placed {
	snap := c.store.Snapshot()
	if !c.Active() {
		return circuit.Pack(snap)
	}
	x, y := c.anchor()
	return circuit.Preview(snap, c.geom, c.drag.Kind, c.drag.Offsets, x, y)
}

// Release ends the drag at the last pointer position. With a valid target
// the operation is committed where the preview showed it; otherwise the
// gesture is cancelled and a lifted operation stays deleted.
func (c *Controller) Release() Result {
	if !c.Active() {
		return Result{State: c.state}
	}
	snap := c.store.Snapshot()
	x, y := c.anchor()
	cell, ok := circuit.Target(snap, c.geom, x, y, c.drag.Offsets)
	if !ok {
		return c.Cancel()
	}

	id := c.drag.ID
	if id == 0 {
		id = c.store.NextID()
	}
	op := circuit.Anchored(id, c.drag.Kind, c.drag.Offsets, cell.Row)
	if err := c.store.Commit(circuit.Insert(snap, op, cell)); err != nil {
		c.log.Error("Drop rejected", "kind", op.Kind, "id", op.ID, "err", err)
		return c.Cancel()
	}
	c.finish(Dropped)
	c.log.Debug("Drag dropped", "kind", op.Kind, "id", op.ID, "row", cell.Row, "column", cell.Column)
	return Result{State: Dropped, Op: op, Cell: cell}
}

// Cancel abandons the active drag without placing anything.
func (c *Controller) Cancel() Result {
	if !c.Active() {
		return Result{State: c.state}
	}
	kind, lifted := c.drag.Kind, c.drag.Lifted
	c.finish(Cancelled)
	c.log.Debug("Drag cancelled", "kind", kind, "lifted", lifted)
	return Result{State: Cancelled}
}

func (c *Controller) start(d *Drag) {
	c.drag = d
	c.state = Dragging
	c.tracker.Attach()
}

// finish is the only way out of Dragging, so the tracker is detached exactly
// once per gesture.
func (c *Controller) finish(s State) {
	c.state = s
	c.drag = nil
	c.tracker.Detach()
}

// anchor converts the pointer position into the position of the top row of
// the dragged span.
func (c *Controller) anchor() (int, int) {
	return c.drag.X, c.drag.Y - c.drag.GrabRow*c.geom.PitchY
}
