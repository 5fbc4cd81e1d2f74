package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"qcomposer/internal/circuit"
	"qcomposer/internal/codegen"
	"qcomposer/internal/sim"
)

const maxHistogramRows = 8

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	n := visibleLen(s)
	if n >= width {
		return s
	}
	total := width - n
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// operandSymbol returns the wire symbol drawn for operand i of a
// multi-qubit gate.
func operandSymbol(kind circuit.Kind, i int) string {
	switch kind {
	case circuit.CX:
		if i == 1 {
			return "⊕"
		}
		return "●"
	case circuit.CZ:
		return "●"
	case circuit.SWAP:
		return "×"
	case circuit.TOFFOLI:
		if i == 2 {
			return "⊕"
		}
		return "●"
	}
	return "?"
}

// ──────────────────────────── Cell rendering ────────────────────────────

// cellInfo is what occupies one (wire, column) cell of the grid.
type cellInfo struct {
	op        circuit.Operation
	ghost     bool
	operand   int // index into op.Operands; -1 when the wire passes through
	vertAbove bool
	vertBelow bool
}

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlRetarget
)

// gridCells indexes a render list by cell.
func gridCells(placed []circuit.Placed) map[circuit.Cell]cellInfo {
	cells := make(map[circuit.Cell]cellInfo)
	for _, p := range placed {
		lo, hi := p.Op.Span()
		for r := lo; r <= hi; r++ {
			cells[circuit.Cell{Row: r, Column: p.Column}] = cellInfo{
				op:        p.Op,
				ghost:     p.Ghost,
				operand:   slices.Index(p.Op.Operands, r),
				vertAbove: r > lo,
				vertBelow: r < hi,
			}
		}
	}
	return cells
}

// renderCell returns 3 lines (top, mid, bot) for a single cell.
// Each line is exactly cellW (11) visual characters wide.
func renderCell(info *cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2

	style := gateStyle
	if info != nil && info.ghost {
		style = ghostStyle
	}

	// ── Highlighted cell (cursor or retarget) ──
	if hl != hlNone {
		bdr := cursorBoxStyle
		if hl == hlRetarget {
			bdr = retargetStyle
		}
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")

		switch {
		case info == nil:
			mid = bdr.Render("║") + strings.Repeat("─", innerW) + bdr.Render("║")
		case info.operand < 0:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + style.Render("┼") + strings.Repeat("─", dashR) + bdr.Render("║")
		case len(info.op.Operands) > 1:
			sym := operandSymbol(info.op.Kind, info.operand)
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + style.Render(sym) + strings.Repeat("─", dashR) + bdr.Render("║")
		default:
			name := padCenter(circuit.MustLookup(info.op.Kind).Label, gateNameW)
			mid = bdr.Render("║") + "─┤" + style.Render(name) + "├─" + bdr.Render("║")
		}
		return
	}

	// ── Normal (non-highlighted) cells ──
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	switch {
	case info == nil:
		return emptyRow, strings.Repeat("─", cellW), emptyRow

	case len(info.op.Operands) == 1:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		name := padCenter(circuit.MustLookup(info.op.Kind).Label, gateNameW)
		top = strings.Repeat(" ", margin) + style.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + style.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + style.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
		return

	default:
		sym := "┼"
		if info.operand >= 0 {
			sym = operandSymbol(info.op.Kind, info.operand)
		}
		vert := strings.Repeat(" ", halfW) + style.Render("│") + strings.Repeat(" ", cellW-halfW-1)
		top, bot = emptyRow, emptyRow
		if info.vertAbove {
			top = vert
		}
		if info.vertBelow {
			bot = vert
		}
		mid = strings.Repeat("─", dashL) + style.Render(sym) + strings.Repeat("─", dashR)
		return
	}
}

// ──────────────────────────── Panels ────────────────────────────

// renderCircuitPanel renders the palette strip, the wires and the status
// line. Line offsets must agree with Model.geometry.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Circuit Composer"))
	if u := m.currentUser(); u != "" {
		sb.WriteString(dimStyle.Render("  signed in as " + u))
	}
	sb.WriteString("\n\n")

	var dragging circuit.Kind
	if d, ok := m.ctl.Drag(); ok && !d.Lifted {
		dragging = d.Kind
	}
	sb.WriteString(renderPalette(dragging))
	sb.WriteString("\n\n")

	startStep := m.viewStartStep
	displaySteps := m.visibleSteps()

	// Step header
	sb.WriteString(strings.Repeat(" ", labelVisualW))
	for step := startStep; step < startStep+displaySteps; step++ {
		sb.WriteString(dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW)))
	}
	sb.WriteString("\n")

	cells := gridCells(m.ctl.Preview())
	focusCell := circuit.Cell{Row: m.cursorQubit, Column: m.cursorStep}
	if m.kbdDrag {
		focusCell = m.pointer
	}
	hl := hlCursor
	if m.focus == focusRetarget {
		hl = hlRetarget
	}

	for q := 0; q < m.store.Qubits(); q++ {
		var tops, mids, bots strings.Builder
		label := fmt.Sprintf("q[%d]", q)
		tops.WriteString(strings.Repeat(" ", labelVisualW))
		mids.WriteString(qubitLabelStyle.Render(fmt.Sprintf("%-5s", label)) + "──")
		bots.WriteString(strings.Repeat(" ", labelVisualW))

		for step := startStep; step < startStep+displaySteps; step++ {
			cell := circuit.Cell{Row: q, Column: step}
			var info *cellInfo
			if ci, ok := cells[cell]; ok {
				info = &ci
			}
			h := hlNone
			if cell == focusCell {
				h = hl
			}
			t, md, b := renderCell(info, h)
			tops.WriteString(t)
			mids.WriteString(md)
			bots.WriteString(b)
		}
		sb.WriteString(tops.String() + "\n")
		sb.WriteString(mids.String() + "\n")
		sb.WriteString(bots.String() + "\n")
	}

	// Status line
	sb.WriteString("\n")
	switch {
	case m.ctl.Active():
		d, _ := m.ctl.Drag()
		op := circuit.MustLookup(d.Kind)
		fmt.Fprintf(&sb, "  %s", activeGateStyle.Render(op.Name))
		if cell, ok := m.ctl.Target(); ok {
			fmt.Fprintf(&sb, "  Drop at step %d, q[%d]", cell.Column, cell.Row)
		} else {
			sb.WriteString(dimStyle.Render("  No drop target"))
		}
		if m.kbdDrag {
			sb.WriteString(dimStyle.Render("   ←↑↓→ Move  Enter Drop  Esc Cancel"))
		} else {
			sb.WriteString(dimStyle.Render("   Release to drop  Esc Cancel"))
		}
	case m.focus == focusRetarget:
		sb.WriteString("  Move operand: ")
		sb.WriteString(retargetStyle.Render(fmt.Sprintf("q[%d]", m.cursorQubit)))
		sb.WriteString(dimStyle.Render("   ↑↓ Move  Tab Next operand  Enter Done"))
	default:
		fmt.Fprintf(&sb, "  Position: Step %d, Qubit %d", m.cursorStep, m.cursorQubit)
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) currentUser() string {
	if m.users == nil {
		return ""
	}
	if u := m.users.CurrentUser(); u != nil {
		return u.Name
	}
	return ""
}

// renderCodePanel renders the generated code and the last simulation result.
func (m Model) renderCodePanel(width, height int) string {
	var sb strings.Builder

	title := string(m.dialect)
	if r, err := codegen.For(m.dialect); err == nil {
		title = r.Title()
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString(dimStyle.Render("  Tab ⇄"))
	sb.WriteString("\n\n")
	sb.WriteString(m.code.View())

	if m.result != nil {
		sb.WriteString("\n\n")
		sb.WriteString(titleStyle.Render("Results"))
		sb.WriteString("\n")
		sb.WriteString(renderHistogram(m.result))
	}

	return codeStyle.Width(width).Height(height).Render(sb.String())
}

// renderHistogram draws one bar per outcome, most frequent first.
func renderHistogram(res *sim.Result) string {
	keys := slices.Collect(maps.Keys(res.Counts))
	slices.SortFunc(keys, func(a, b string) int {
		if d := res.Counts[b] - res.Counts[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	peak := 1
	for _, k := range keys {
		peak = max(peak, res.Counts[k])
	}

	var sb strings.Builder
	for i, k := range keys {
		if i == maxHistogramRows {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("… %d more", len(keys)-i)))
			break
		}
		n := res.Counts[k]
		bar := strings.Repeat("█", n*histogramBarW/peak)
		pct := 100 * float64(n) / float64(max(res.Shots, 1))
		fmt.Fprintf(&sb, "%s %s %s\n", qubitLabelStyle.Render(k), barStyle.Render(fmt.Sprintf("%-*s", histogramBarW, bar)), dimStyle.Render(fmt.Sprintf("%5.1f%%", pct)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Edit:    "))
	sb.WriteString("Drag from palette  a Add  m Move  c Retarget  Bksp Delete  +/- Wires")
	sb.WriteString("\n")

	sb.WriteString(activeGateStyle.Render("Actions: "))
	switch {
	case m.running:
		sb.WriteString(dimStyle.Render("r Running…"))
	case m.canRun():
		sb.WriteString(activeGateStyle.Render("r"))
		sb.WriteString(" Run simulation")
	default:
		sb.WriteString(dimStyle.Render("r Run simulation (sign in)"))
	}
	sb.WriteString("  ")
	sb.WriteString(dimStyle.Render("Run on hardware (unavailable)"))
	sb.WriteString("  Tab Dialect  ^S Save  ^R Reset  q Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// spliceLineAt replaces visible columns starting at position x in bgLine with overlay content.
// It properly handles ANSI escape sequences in the background line.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix strings.Builder
	var suffix strings.Builder

	col := 0
	i := 0
	inEsc := false

	// Collect prefix: everything up to visible column x
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			inEsc = true
			for i < len(runes) {
				prefix.WriteRune(runes[i])
				if inEsc && runes[i] != '\x1b' && runes[i] != '[' && ((runes[i] >= 'A' && runes[i] <= 'Z') || (runes[i] >= 'a' && runes[i] <= 'z')) {
					inEsc = false
					i++
					break
				}
				i++
			}
		} else {
			prefix.WriteRune(runes[i])
			col++
			i++
		}
	}

	// Pad prefix if bg line is shorter than x
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	// Skip over ovWidth visible columns in the background
	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				i++
				if i > 0 && runes[i-1] != '\x1b' && runes[i-1] != '[' && ((runes[i-1] >= 'A' && runes[i-1] <= 'Z') || (runes[i-1] >= 'a' && runes[i-1] <= 'z')) {
					break
				}
			}
		} else {
			skipped++
			i++
		}
	}

	// Collect suffix: rest of the background line
	for i < len(runes) {
		suffix.WriteRune(runes[i])
		i++
	}

	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
