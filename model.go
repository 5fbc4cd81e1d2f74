package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qcomposer/internal/circuit"
	"qcomposer/internal/codegen"
	"qcomposer/internal/gesture"
	"qcomposer/internal/session"
	"qcomposer/internal/sim"
)

const simTimeout = time.Minute

// focus represents which mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusMenu
	focusRetarget
)

// simResultMsg delivers the outcome of a background simulation.
type simResultMsg struct {
	res *sim.Result
	err error
}

// mouseTracker widens mouse reporting to all motion while a drag is in
// progress. The gesture controller calls it synchronously; the resulting
// commands are handed to bubbletea by the next Update.
type mouseTracker struct {
	pending []tea.Cmd
}

func (t *mouseTracker) Attach() { t.pending = append(t.pending, tea.EnableMouseAllMotion) }
func (t *mouseTracker) Detach() { t.pending = append(t.pending, tea.EnableMouseCellMotion) }

func (t *mouseTracker) flush() tea.Cmd {
	cmds := t.pending
	t.pending = nil
	if len(cmds) == 0 {
		return nil
	}
	return tea.Sequence(cmds...)
}

// modelOptions configures a new editor.
type modelOptions struct {
	Qubits  int
	Dialect codegen.Dialect
	Users   session.Provider
	Sim     sim.Simulator
	Shots   int
	Log     *slog.Logger
}

// Model represents the TUI application state.
type Model struct {
	store   *circuit.Store // single source of truth for the circuit
	ctl     *gesture.Controller
	mouse   *mouseTracker
	code    viewport.Model
	dialect codegen.Dialect
	users   session.Provider
	sim     sim.Simulator
	shots   int
	log     *slog.Logger

	cursorQubit   int
	cursorStep    int
	viewStartStep int // First step currently visible in the view
	width         int
	height        int
	focus         focus
	statusMsg     string // transient status message (e.g. save confirmation)

	// Menu state
	menuCat  int
	menuItem int

	// Keyboard drag: the pointer is synthesized at the centre of this cell.
	kbdDrag bool
	pointer circuit.Cell

	// Retarget state
	retargetID      circuit.ID
	retargetOperand int

	// Simulation state
	running bool
	result  *sim.Result
}

func newModel(opts modelOptions) Model {
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	if opts.Dialect == "" {
		opts.Dialect = codegen.OpenQASM
	}
	store := circuit.NewStore(max(opts.Qubits, 1))
	mouse := &mouseTracker{}

	m := Model{
		store:   store,
		mouse:   mouse,
		code:    viewport.New(40, 20),
		dialect: opts.Dialect,
		users:   opts.Users,
		sim:     opts.Sim,
		shots:   opts.Shots,
		log:     opts.Log,
		focus:   focusCircuit,
	}
	m.ctl = gesture.New(store, m.geometry(), mouse, opts.Log)
	m.syncCode()
	return m
}

// visibleSteps is the number of columns that fit in the circuit panel.
func (m Model) visibleSteps() int {
	if m.width == 0 {
		return 6
	}
	w, _ := m.panelSizes()
	return max((w-2-labelVisualW)/cellW, 1)
}

// panelSizes returns the widths of the circuit and code panels.
func (m Model) panelSizes() (circuitW, codeW int) {
	codeW = m.width / 3
	return m.width - codeW - 4, codeW
}

// geometry maps grid cells to screen positions of the circuit panel. The
// panel sits at the top-left corner of the frame.
func (m Model) geometry() circuit.Geometry {
	return circuit.Geometry{
		OriginX: panelInsetX + labelVisualW,
		OriginY: panelInsetY + wiresLine,
		MarginX: cellW/2 - m.viewStartStep*cellW,
		MarginY: cellH / 2,
		PitchX:  cellW,
		PitchY:  cellH,
		Width:   m.visibleSteps() * cellW,
		Height:  m.store.Qubits() * cellH,
	}
}

func (m *Model) syncGeometry() {
	m.ctl.SetGeometry(m.geometry())
}

// syncCode regenerates the code panel from the store.
func (m *Model) syncCode() {
	code, err := codegen.Render(m.dialect, m.store.Snapshot())
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.code.SetContent(code)
}

// scrollTo keeps step inside the visible columns.
func (m *Model) scrollTo(step int) {
	vis := m.visibleSteps()
	if step < m.viewStartStep {
		m.viewStartStep = step
	}
	if step >= m.viewStartStep+vis {
		m.viewStartStep = step - vis + 1
	}
	m.syncGeometry()
}

// layout sizes the code viewport to the space left under its title and the
// results section.
func (m *Model) layout() {
	_, codeW := m.panelSizes()
	m.code.Width = max(codeW-2, 20)
	ctrlH := 6
	circH := m.height - ctrlH - 4
	reserved := 4
	if m.result != nil {
		reserved += min(len(m.result.Counts), maxHistogramRows) + 3
	}
	m.code.Height = max(circH-reserved, 4)
}

// columnOf returns the packed column of an operation, or -1.
func (m Model) columnOf(id circuit.ID) int {
	for _, p := range circuit.Pack(m.store.Snapshot()) {
		if p.Op.ID == id {
			return p.Column
		}
	}
	return -1
}

// selected returns the placed operation under the cursor.
func (m Model) selected() (circuit.Placed, bool) {
	cell := circuit.Cell{Row: m.cursorQubit, Column: m.cursorStep}
	return circuit.OperationAt(circuit.Pack(m.store.Snapshot()), cell)
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.scrollTo(m.cursorStep)

	case simResultMsg:
		m.running = false
		if msg.err != nil {
			m.statusMsg = "Simulation failed: " + msg.err.Error()
			m.log.Warn("Simulation failed", "err", msg.err)
			break
		}
		m.result = msg.res
		m.statusMsg = fmt.Sprintf("Simulation finished: %d shots", msg.res.Shots)
		m.log.Info("Simulation finished", "id", msg.res.ID, "backend", msg.res.Backend, "shots", msg.res.Shots, "elapsed", msg.res.Elapsed)
		m.layout()

	case tea.MouseMsg:
		m = m.handleMouse(msg)

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			var cmd tea.Cmd
			m, cmd = m.handleCircuitKey(msg)
			cmds = append(cmds, cmd)

		case focusMenu:
			m = m.handleMenuKey(key)

		case focusRetarget:
			m = m.handleRetargetKey(key)
		}
	}

	cmds = append(cmds, m.mouse.flush())
	return m, tea.Batch(cmds...)
}

func (m Model) handleCircuitKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	key := msg.String()

	if m.ctl.Active() {
		return m.handleDragKey(key), nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "tab":
		m.dialect = codegen.Next(m.dialect)
		m.syncCode()
		if r, err := codegen.For(m.dialect); err == nil {
			m.statusMsg = "Dialect: " + r.Title()
		}
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.code, cmd = m.code.Update(msg)
		return m, cmd
	case "ctrl+r":
		m.store.Clear()
		m.cursorStep = 0
		m.scrollTo(0)
		m.syncCode()
		m.statusMsg = "Circuit cleared"
	case "ctrl+s":
		m.save()
	case "up", "k":
		if m.cursorQubit > 0 {
			m.cursorQubit--
		}
	case "down", "j":
		if m.cursorQubit < m.store.Qubits()-1 {
			m.cursorQubit++
		}
	case "left", "h":
		if m.cursorStep > 0 {
			m.cursorStep--
			m.scrollTo(m.cursorStep)
		}
	case "right", "l":
		m.cursorStep++
		m.scrollTo(m.cursorStep)
	case "+", "=":
		m.store.AddWire()
		m.syncGeometry()
		m.syncCode()
		m.log.Debug("Wire added", "qubits", m.store.Qubits())
	case "-":
		removed, err := m.store.RemoveWire(m.cursorQubit)
		if err != nil {
			m.statusMsg = "Cannot remove wire: " + err.Error()
			break
		}
		m.log.Debug("Wire removed", "wire", m.cursorQubit, "ops", removed, "qubits", m.store.Qubits())
		m.cursorQubit = min(m.cursorQubit, m.store.Qubits()-1)
		m.syncGeometry()
		m.syncCode()
		if removed > 0 {
			m.statusMsg = fmt.Sprintf("Removed wire and %d gate(s)", removed)
		}
	case "a":
		m.focus = focusMenu
		m.menuCat = 0
		m.menuItem = 0
	case "m":
		m.liftAtCursor()
	case "backspace", "delete":
		if p, ok := m.selected(); ok {
			m.store.Remove(p.Op.ID)
			m.syncCode()
		}
	case "c":
		p, ok := m.selected()
		if !ok || len(p.Op.Operands) < 2 {
			m.statusMsg = "Select a multi-qubit gate to move its operands"
			break
		}
		m.retargetID = p.Op.ID
		m.retargetOperand = max(slices.Index(p.Op.Operands, m.cursorQubit), 0)
		m.cursorQubit = p.Op.Operands[m.retargetOperand]
		m.focus = focusRetarget
	case "r":
		return m.runSimulation()
	}
	return m, nil
}

// handleDragKey moves a keyboard drag one pitch per arrow key.
func (m Model) handleDragKey(key string) Model {
	switch key {
	case "esc":
		m.finishDrag(m.ctl.Cancel())
		return m
	case "enter":
		if m.kbdDrag {
			m.finishDrag(m.ctl.Release())
		}
		return m
	}
	if !m.kbdDrag {
		return m
	}

	switch key {
	case "up", "k":
		m.pointer.Row = max(m.pointer.Row-1, 0)
	case "down", "j":
		m.pointer.Row = min(m.pointer.Row+1, m.store.Qubits()-1)
	case "left", "h":
		m.pointer.Column = max(m.pointer.Column-1, 0)
	case "right", "l":
		m.pointer.Column = min(m.pointer.Column+1, m.lastColumn())
	default:
		return m
	}
	m.scrollTo(m.pointer.Column)
	m.ctl.Move(m.ctl.Geometry().Center(m.pointer))
	return m
}

// lastColumn is the first column past the end of the circuit.
func (m Model) lastColumn() int {
	col := 0
	for _, f := range circuit.Frontier(m.store.Snapshot()) {
		col = max(col, f)
	}
	return col
}

func (m Model) handleMenuKey(key string) Model {
	switch key {
	case "esc":
		m.focus = focusCircuit
	case "up", "k":
		if m.menuItem > 0 {
			m.menuItem--
		}
	case "down", "j":
		cat := gateMenu[m.menuCat]
		if m.menuItem < len(cat.items)-1 {
			m.menuItem++
		}
	case "left", "h":
		if m.menuCat > 0 {
			m.menuCat--
			m.menuItem = 0
		}
	case "right", "l":
		if m.menuCat < len(gateMenu)-1 {
			m.menuCat++
			m.menuItem = 0
		}
	case "enter":
		item := gateMenu[m.menuCat].items[m.menuItem]
		m.focus = focusCircuit
		m.pointer = circuit.Cell{Row: m.cursorQubit, Column: m.cursorStep}
		x, y := m.ctl.Geometry().Center(m.pointer)
		if m.beginPalette(item.op, x, y) {
			m.kbdDrag = true
		}
	}
	return m
}

// handleRetargetKey moves one operand of the selected gate between wires.
func (m Model) handleRetargetKey(key string) Model {
	op, ok := m.store.Get(m.retargetID)
	if !ok {
		m.focus = focusCircuit
		return m
	}

	switch key {
	case "esc", "enter", "c":
		m.focus = focusCircuit
		return m
	case "tab":
		m.retargetOperand = (m.retargetOperand + 1) % len(op.Operands)
		m.cursorQubit = op.Operands[m.retargetOperand]
		return m
	case "up", "k":
		m.shiftOperand(op, -1)
	case "down", "j":
		m.shiftOperand(op, 1)
	}
	return m
}

// shiftOperand moves the retargeted operand to the next free wire in dir.
func (m *Model) shiftOperand(op circuit.Operation, dir int) {
	for w := op.Operands[m.retargetOperand] + dir; w >= 0 && w < m.store.Qubits(); w += dir {
		err := m.store.Retarget(op.ID, m.retargetOperand, w)
		if errors.Is(err, circuit.ErrDuplicate) {
			continue
		}
		if err != nil {
			m.statusMsg = err.Error()
			return
		}
		m.cursorQubit = w
		if col := m.columnOf(op.ID); col >= 0 {
			m.cursorStep = col
			m.scrollTo(col)
		}
		m.syncCode()
		return
	}
}

// ──────────────────────────── Gestures ────────────────────────────

func (m Model) handleMouse(msg tea.MouseMsg) Model {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonRight && m.ctl.Active() {
			m.finishDrag(m.ctl.Cancel())
			break
		}
		if msg.Button != tea.MouseButtonLeft || m.ctl.Active() || m.focus != focusCircuit {
			break
		}
		if msg.Y == panelInsetY+paletteLine {
			if op, ok := paletteHit(msg.X); ok {
				m.beginPalette(op, msg.X, msg.Y)
			}
			break
		}
		cell, ok := m.ctl.Geometry().CellAt(msg.X, msg.Y)
		if !ok {
			break
		}
		m.cursorQubit, m.cursorStep = cell.Row, cell.Column
		if err := m.ctl.BeginLift(msg.X, msg.Y); err == nil {
			m.syncCode()
		}

	case tea.MouseActionMotion:
		if !m.kbdDrag {
			m.ctl.Move(msg.X, msg.Y)
		}

	case tea.MouseActionRelease:
		if m.ctl.Active() && !m.kbdDrag {
			m.ctl.Move(msg.X, msg.Y)
			m.finishDrag(m.ctl.Release())
		}
	}
	return m
}

// beginPalette starts dragging a fresh gate. Gates wider than the circuit
// are refused up front.
func (m *Model) beginPalette(op circuit.Operator, x, y int) bool {
	if op.Arity > m.store.Qubits() {
		m.statusMsg = fmt.Sprintf("%s needs %d wires", op.Name, op.Arity)
		return false
	}
	if err := m.ctl.BeginPalette(op.Kind, x, y); err != nil {
		m.statusMsg = err.Error()
		return false
	}
	return true
}

// liftAtCursor picks up the gate under the cursor for a keyboard drag.
func (m *Model) liftAtCursor() {
	m.pointer = circuit.Cell{Row: m.cursorQubit, Column: m.cursorStep}
	x, y := m.ctl.Geometry().Center(m.pointer)
	if err := m.ctl.BeginLift(x, y); err != nil {
		m.statusMsg = "Nothing to move here"
		return
	}
	m.kbdDrag = true
	m.syncCode()
}

func (m *Model) finishDrag(res gesture.Result) {
	m.kbdDrag = false
	switch res.State {
	case gesture.Dropped:
		op := circuit.MustLookup(res.Op.Kind)
		m.cursorQubit = res.Cell.Row
		if col := m.columnOf(res.Op.ID); col >= 0 {
			m.cursorStep = col
			m.scrollTo(col)
		}
		m.statusMsg = fmt.Sprintf("Placed %s", op.Name)
	case gesture.Cancelled:
		m.statusMsg = "Drag cancelled"
	}
	m.syncCode()
}

// ──────────────────────────── Actions ────────────────────────────

func (m *Model) save() {
	r, err := codegen.For(m.dialect)
	if err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	name := "circuit" + r.Extension()
	if err := os.WriteFile(name, []byte(r.Render(m.store.Snapshot())), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		return
	}
	m.statusMsg = "Saved " + name
	m.log.Info("Circuit saved", "file", name, "dialect", m.dialect, "ops", m.store.Len())
}

// canRun reports whether the run affordance is enabled.
func (m Model) canRun() bool {
	return m.sim != nil && m.users != nil && m.users.CurrentUser() != nil
}

// runSimulation hands the OpenQASM rendering of the circuit to the simulator
// in the background. The simulator never sees the store.
func (m Model) runSimulation() (Model, tea.Cmd) {
	switch {
	case m.sim == nil:
		m.statusMsg = "No simulator configured"
		return m, nil
	case !m.canRun():
		m.statusMsg = "Sign in to run simulations"
		return m, nil
	case m.running:
		m.statusMsg = "Simulation already running"
		return m, nil
	}
	code, err := codegen.Render(codegen.OpenQASM, m.store.Snapshot())
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}

	m.running = true
	m.statusMsg = "Running simulation…"
	s, shots := m.sim, m.shots
	m.log.Debug("Simulation started", "user", m.users.CurrentUser().Name, "ops", m.store.Len(), "shots", shots)
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), simTimeout)
		defer cancel()
		res, err := s.Run(ctx, code, shots)
		return simResultMsg{res: res, err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	circuitWidth, codeWidth := m.panelSizes()
	controlsHeight := 6
	circuitHeight := max(m.height-controlsHeight-2, 6)

	circuitPanel := m.renderCircuitPanel(circuitWidth, circuitHeight)
	codePanel := m.renderCodePanel(codeWidth, circuitHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, codePanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	// Render menu overlay when in menu mode
	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}

	return frame
}
