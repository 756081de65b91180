package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/TFMV/liquiditymap/models"
	"github.com/TFMV/liquiditymap/physics"
)

// CellKind says what occupies a character cell
type CellKind int

const (
	CellEmpty CellKind = iota
	CellLink
	CellBubble
	CellLabel
)

const (
	linkRune   = '·'
	bubbleRune = '░'
	borderRune = '▒'
)

// Cell is one character of a rasterized frame
type Cell struct {
	Rune     rune
	Kind     CellKind
	NodeID   string
	Group    models.Group
	Selected bool
}

// Grid is a frame scaled down to character cells. The terminal surface and the
// ascii renderer both draw from it.
type Grid struct {
	Cols, Rows int
	Cells      [][]Cell
	scaleX     float64
	scaleY     float64
}

// Rasterize scales a frame onto a cols x rows grid
func Rasterize(frame *Frame, cols, rows int) *Grid {
	cols = max(cols, 10)
	rows = max(rows, 5)
	vp := frame.Snapshot.Viewport
	if !vp.Valid() {
		vp = physics.DefaultViewport
	}

	g := &Grid{
		Cols:   cols,
		Rows:   rows,
		Cells:  make([][]Cell, rows),
		scaleX: float64(cols) / vp.Width,
		scaleY: float64(rows) / vp.Height,
	}
	for y := range g.Cells {
		g.Cells[y] = make([]Cell, cols)
		for x := range g.Cells[y] {
			g.Cells[y][x] = Cell{Rune: ' '}
		}
	}

	for _, e := range frame.edges() {
		s, t, ok := frame.edgeEnds(e)
		if !ok {
			continue
		}
		x1, y1 := g.ToCell(s.X, s.Y)
		x2, y2 := g.ToCell(t.X, t.Y)
		g.drawLine(x1, y1, x2, y2)
	}

	for _, n := range frame.nodes() {
		g.drawBubble(n, n.state.ID == frame.SelectedID)
	}
	return g
}

// ToCell converts a layout position to the nearest cell, clamped to the grid
func (g *Grid) ToCell(x, y float64) (int, int) {
	cx := clamp(int(math.Floor(x*g.scaleX)), 0, g.Cols-1)
	cy := clamp(int(math.Floor(y*g.scaleY)), 0, g.Rows-1)
	return cx, cy
}

// ToWorld converts a cell to the layout position at its centre
func (g *Grid) ToWorld(col, row int) (float64, float64) {
	return (float64(col) + 0.5) / g.scaleX, (float64(row) + 0.5) / g.scaleY
}

// At returns the cell at a column and row
func (g *Grid) At(col, row int) (Cell, bool) {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return Cell{}, false
	}
	return g.Cells[row][col], true
}

// String returns the grid as plain text, one line per row
func (g *Grid) String() string {
	var b strings.Builder
	for _, row := range g.Cells {
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (g *Grid) set(x, y int, c Cell) {
	if y < 0 || y >= g.Rows || x < 0 || x >= g.Cols {
		return
	}
	g.Cells[y][x] = c
}

func (g *Grid) drawBubble(n nodeInfo, selected bool) {
	rx := n.state.Radius * g.scaleX
	ry := n.state.Radius * g.scaleY
	cx, cy := n.state.X*g.scaleX, n.state.Y*g.scaleY

	fill := Cell{Rune: bubbleRune, Kind: CellBubble, NodeID: n.state.ID, Group: n.state.Group, Selected: selected}
	if selected {
		fill.Rune = borderRune
	}
	minY := int(math.Floor(cy - ry))
	maxY := int(math.Ceil(cy + ry))
	minX := int(math.Floor(cx - rx))
	maxX := int(math.Ceil(cx + rx))
	drawn := false
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := (float64(x) + 0.5 - cx) / math.Max(rx, 0.5)
			dy := (float64(y) + 0.5 - cy) / math.Max(ry, 0.5)
			if dx*dx+dy*dy <= 1 {
				g.set(x, y, fill)
				drawn = true
			}
		}
	}

	x0, y0 := g.ToCell(n.state.X, n.state.Y)
	if !drawn {
		g.set(x0, y0, fill)
	}

	// Code label centred on the bubble, truncated to its width
	label := []rune(n.code())
	width := max(int(2*rx), 1)
	if len(label) > width {
		label = label[:width]
	}
	start := x0 - len(label)/2
	lc := fill
	lc.Kind = CellLabel
	for i, r := range label {
		lc.Rune = r
		g.set(start+i, y0, lc)
	}
}

// drawLine plots a link with Bresenham's algorithm without overwriting bubbles
func (g *Grid) drawLine(x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx := 1
	if x1 >= x2 {
		sx = -1
	}
	sy := 1
	if y1 >= y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if c, ok := g.At(x1, y1); ok && c.Kind == CellEmpty {
			g.set(x1, y1, Cell{Rune: linkRune, Kind: CellLink})
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders the bubble map as text for terminals and logs"
}

// Render creates an ASCII representation of the frame
func (r *ASCIIRenderer) Render(frame *Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	options := frame.options()
	grid := Rasterize(frame, options.Columns, options.Rows)

	var b strings.Builder
	if options.Title != "" {
		b.WriteString(options.Title)
		b.WriteRune('\n')
	}
	if options.ShowLegend {
		var parts []string
		for _, g := range frame.groupsPresent() {
			parts = append(parts, GroupLabel(g))
		}
		if frame.SelectedID != "" {
			parts = append(parts, "selected: "+frame.SelectedID)
		}
		b.WriteString(strings.Join(parts, " | "))
		b.WriteRune('\n')
	}

	border := "+" + strings.Repeat("-", grid.Cols) + "+\n"
	b.WriteString(border)
	for _, row := range grid.Cells {
		b.WriteRune('|')
		for _, c := range row {
			b.WriteRune(c.Rune)
		}
		b.WriteString("|\n")
	}
	b.WriteString(border)

	if options.ShowValues {
		for _, n := range frame.nodes() {
			if v := n.value(); v != "" {
				fmt.Fprintf(&b, "  %-12s %s\n", n.code(), v)
			}
		}
	}
	if options.Timestamp {
		b.WriteString(timestamp())
		b.WriteRune('\n')
	}
	return []byte(b.String()), nil
}

func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
