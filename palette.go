package main

import (
	"fmt"
	"strings"

	"qcomposer/internal/circuit"
)

// menuItem represents a single gate choice in the palette menu.
type menuItem struct {
	op     circuit.Operator
	symbol string
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// gateMenu groups the registered operators by arity. Measurement gets its
// own tab.
var gateMenu = buildMenu(circuit.Operators())

func buildMenu(ops []circuit.Operator) []menuCategory {
	cats := []menuCategory{
		{name: "Single Qubit"},
		{name: "Multi Qubit"},
		{name: "Measurement"},
	}
	for _, op := range ops {
		i := 0
		switch {
		case op.Kind == circuit.M:
			i = 2
		case op.Arity > 1:
			i = 1
		}
		cats[i].items = append(cats[i].items, menuItem{op: op, symbol: menuSymbol(op)})
	}
	return cats
}

// menuSymbol draws the operand layout of an operator, top to bottom.
func menuSymbol(op circuit.Operator) string {
	switch op.Kind {
	case circuit.CX:
		return "●─⊕"
	case circuit.CZ:
		return "●─●"
	case circuit.SWAP:
		return "×─×"
	case circuit.TOFFOLI:
		return "●─●─⊕"
	}
	return op.Label
}

// paletteHit returns the operator whose palette slot covers screen column x.
// Slots start right after the label area of the circuit panel.
func paletteHit(x int) (circuit.Operator, bool) {
	ops := circuit.Operators()
	rx := x - panelInsetX - labelVisualW
	if rx < 0 || rx%paletteSlotW == paletteSlotW-1 {
		return circuit.Operator{}, false
	}
	i := rx / paletteSlotW
	if i >= len(ops) {
		return circuit.Operator{}, false
	}
	return ops[i], true
}

// renderPalette renders the one-line gate strip that mouse drags start from.
func renderPalette(active circuit.Kind) string {
	var sb strings.Builder
	sb.WriteString(dimStyle.Render(fmt.Sprintf("%-*s", labelVisualW, "Gates")))
	for _, op := range circuit.Operators() {
		slot := "[" + padCenter(op.Label, paletteSlotW-3) + "]"
		if op.Kind == active {
			sb.WriteString(menuSelectedStyle.Render(slot))
		} else {
			sb.WriteString(paletteStyle.Render(slot))
		}
		sb.WriteString(" ")
	}
	return sb.String()
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Add Gate"))
	sb.WriteString("\n")

	// Category tabs
	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	// Items in the selected category
	cat := gateMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.op.Name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-18s", item.op.Name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		if item.op.Arity > m.store.Qubits() {
			sb.WriteString(errorStyle.Render(fmt.Sprintf(" needs %d wires", item.op.Arity)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Drag  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
