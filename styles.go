package main

import "github.com/charmbracelet/lipgloss"

// Grid measurements of the composer canvas. They must agree with the
// circuit.Geometry the model derives for pointer hit-testing.
const (
	cellW        = 11 // characters per packed column, the horizontal pitch
	cellH        = 3  // terminal lines per wire, the vertical pitch
	labelVisualW = 7  // wire label gutter left of column 0
	gateNameW    = 5  // kind name centred between the box edges
	gateBoxW     = 7  // gateNameW plus the ┤ and ├ edges
	paletteSlotW = 6  // one draggable palette entry and its gap

	// Screen offsets of the circuit panel content (border + padding).
	panelInsetX = 2
	panelInsetY = 2

	// Content lines above the first wire: title, blank, palette, blank, step numbers.
	paletteLine = 2
	wiresLine   = 5

	histogramBarW = 24
)

// Styles for the composer panels and the gates drawn on the grid.
var (
	circuitStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(1)

	codeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#bb9af7")).
			Padding(1)

	controlsStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#9ece6a")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64"))

	cursorBoxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff9e64")).
			Bold(true)

	retargetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bb9af7")).
			Bold(true)

	activeGateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))

	qubitLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff"))

	gateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#73daca"))

	ghostStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#9aa5ce"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f7768e"))

	paletteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73daca"))

	menuBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff9e64")).
			Padding(0, 1)

	menuSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#ff9e64"))

	menuNormalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0caf5"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68"))
)
