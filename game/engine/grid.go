package engine

import (
	"fmt"
	"strings"
)

// Grid is a fixed-size 2D array of cell tags
type Grid struct {
	rows  int
	cols  int
	cells [][]Tag
}

// NewGrid creates an all-empty grid. Non-positive dimensions panic.
func NewGrid(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("engine: invalid grid dimensions %dx%d", rows, cols))
	}
	cells := make([][]Tag, rows)
	for i := range cells {
		cells[i] = make([]Tag, cols)
	}
	return &Grid{rows: rows, cols: cols, cells: cells}
}

// Rows returns the number of rows
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c lies inside the grid
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Get returns the tag at c. Out-of-range access panics.
func (g *Grid) Get(c Cell) Tag {
	return g.cells[c.Row][c.Col]
}

// Set overwrites the tag at c. Out-of-range access panics.
func (g *Grid) Set(c Cell, tag Tag) {
	g.cells[c.Row][c.Col] = tag
}

// Passable reports whether c is in bounds and not an obstacle
func (g *Grid) Passable(c Cell) bool {
	return g.InBounds(c) && g.cells[c.Row][c.Col].Kind != TagObstacle
}

// Find returns every cell whose tag kind is kind, in row-major order
func (g *Grid) Find(kind TagKind) []Cell {
	var found []Cell
	for r, row := range g.cells {
		for c, tag := range row {
			if tag.Kind == kind {
				found = append(found, Cell{Row: r, Col: c})
			}
		}
	}
	return found
}

// Replace rewrites every cell tagged from to the tag to and returns how many changed
func (g *Grid) Replace(from TagKind, to Tag) int {
	changed := 0
	for r := range g.cells {
		for c := range g.cells[r] {
			if g.cells[r][c].Kind == from {
				g.cells[r][c] = to
				changed++
			}
		}
	}
	return changed
}

// Symbols returns the console symbols row by row
func (g *Grid) Symbols() [][]string {
	out := make([][]string, g.rows)
	for r, row := range g.cells {
		out[r] = make([]string, g.cols)
		for c, tag := range row {
			out[r][c] = tag.Symbol()
		}
	}
	return out
}

// String renders the grid as space separated symbols, one row per line
func (g *Grid) String() string {
	var b strings.Builder
	for r, row := range g.Symbols() {
		if r > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(row, " "))
	}
	return b.String()
}

// Clone returns a deep copy
func (g *Grid) Clone() *Grid {
	cp := NewGrid(g.rows, g.cols)
	for r := range g.cells {
		copy(cp.cells[r], g.cells[r])
	}
	return cp
}
