package circuit

import "math"

// Cell is a grid position: a wire row and a packing column.
type Cell struct {
	Row    int
	Column int
}

// Geometry maps between grid cells and screen coordinates. In the terminal
// composer a "pixel" is one character cell.
type Geometry struct {
	OriginX, OriginY int // screen position of the canvas' top-left corner
	MarginX, MarginY int // offset from the origin to the centre of cell (0,0)
	PitchX, PitchY   int // distance between neighbouring column / row centres
	Width, Height    int // canvas extent from the origin; zero means unbounded
}

// Center returns the screen position of the centre of a cell.
func (g Geometry) Center(c Cell) (x, y int) {
	return g.OriginX + g.MarginX + c.Column*g.PitchX,
		g.OriginY + g.MarginY + c.Row*g.PitchY
}

// Contains reports whether a screen position lies on the canvas.
func (g Geometry) Contains(x, y int) bool {
	rx, ry := x-g.OriginX, y-g.OriginY
	if rx < 0 || ry < 0 {
		return false
	}
	if g.Width > 0 && rx >= g.Width {
		return false
	}
	if g.Height > 0 && ry >= g.Height {
		return false
	}
	return true
}

// CellAt returns the grid cell nearest to a screen position, without regard
// to what is placed there. Points off the canvas have no cell.
func (g Geometry) CellAt(x, y int) (Cell, bool) {
	if !g.Contains(x, y) || g.PitchX <= 0 || g.PitchY <= 0 {
		return Cell{}, false
	}
	return Cell{
		Row:    snap(y-g.OriginY-g.MarginY, g.PitchY),
		Column: snap(x-g.OriginX-g.MarginX, g.PitchX),
	}, true
}

// snap rounds d/pitch to the nearest integer, ties toward the lower index,
// and clamps negative offsets to zero.
func snap(d, pitch int) int {
	v := float64(d) - float64(pitch)/2
	if v <= 0 {
		return 0
	}
	return int(math.Ceil(v / float64(pitch)))
}
