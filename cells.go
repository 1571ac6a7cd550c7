package matrixrain

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// fadeFloor is the distance from black below which a cell is considered dark.
const fadeFloor = 0.04

// Cell is one terminal cell of a CellSurface.
type Cell struct {
	Glyph rune
	Color colorful.Color
}

// CellSurface maps the pixel Surface API onto a terminal grid where every
// terminal cell is one glyph cell of cellSize pixels.
//
// Drawing is coarse on purpose: a glyph lands in the cell whose bottom edge
// is its baseline, and a translucent FillRect fades each covered cell's
// colour toward the fill colour instead of blending pixels.
type CellSurface struct {
	cellSize int
	width    int
	height   int
	cols     int
	rows     int
	cells    []Cell
	styles   map[string]lipgloss.Style
}

// NewCellSurface creates an empty surface for glyph cells of cellSize pixels.
func NewCellSurface(cellSize int) *CellSurface {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &CellSurface{
		cellSize: cellSize,
		styles:   make(map[string]lipgloss.Style),
	}
}

// CellSize returns the pixel size of one cell.
func (s *CellSurface) CellSize() int { return s.cellSize }

// Width implements Surface.
func (s *CellSurface) Width() int { return s.width }

// Height implements Surface.
func (s *CellSurface) Height() int { return s.height }

// Grid returns the grid size in cells.
func (s *CellSurface) Grid() (cols, rows int) { return s.cols, s.rows }

// SetSize implements Surface. Partial cells at the right and bottom edges are
// dropped from the grid but still count toward the pixel size.
func (s *CellSurface) SetSize(width, height int) {
	s.width, s.height = max(width, 0), max(height, 0)
	s.cols, s.rows = s.width/s.cellSize, s.height/s.cellSize
	s.cells = make([]Cell, s.cols*s.rows)
}

// FillRect implements Surface.
func (s *CellSurface) FillRect(r image.Rectangle, c color.Color) {
	fill, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent fill.
		return
	}
	_, _, _, a := c.RGBA()
	alpha := float64(a) / 0xffff

	x0, y0 := max(r.Min.X/s.cellSize, 0), max(r.Min.Y/s.cellSize, 0)
	x1, y1 := min(ceilDiv(r.Max.X, s.cellSize), s.cols), min(ceilDiv(r.Max.Y, s.cellSize), s.rows)

	black := colorful.Color{}
	for row := y0; row < y1; row++ {
		for col := x0; col < x1; col++ {
			cell := &s.cells[row*s.cols+col]
			if cell.Glyph == 0 {
				continue
			}
			cell.Color = cell.Color.BlendRgb(fill, alpha).Clamped()
			if cell.Color.DistanceRgb(black) < fadeFloor {
				*cell = Cell{}
			}
		}
	}
}

// SetFont implements Surface. A terminal has one font, so this is a no-op.
func (s *CellSurface) SetFont(int) {}

// DrawGlyph implements Surface. Draws that fall outside the grid are clipped.
func (s *CellSurface) DrawGlyph(x, y int, glyph rune, c color.Color) {
	if x < 0 || y <= 0 {
		return
	}
	col, row := x/s.cellSize, y/s.cellSize-1
	if col >= s.cols || row < 0 || row >= s.rows {
		return
	}
	clr, ok := colorful.MakeColor(c)
	if !ok {
		return
	}
	s.cells[row*s.cols+col] = Cell{Glyph: glyph, Color: clr}
}

// At returns the cell at col, row. Out-of-range positions return an empty cell.
func (s *CellSurface) At(col, row int) Cell {
	if col < 0 || row < 0 || col >= s.cols || row >= s.rows {
		return Cell{}
	}
	return s.cells[row*s.cols+col]
}

// Each calls fn for every lit cell in row-major order.
func (s *CellSurface) Each(fn func(col, row int, cell Cell)) {
	for i, cell := range s.cells {
		if cell.Glyph != 0 {
			fn(i%s.cols, i/s.cols, cell)
		}
	}
}

// Render returns the grid as lines of lipgloss-coloured text.
func (s *CellSurface) Render() string {
	var b strings.Builder
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < s.cols; col++ {
			cell := s.cells[row*s.cols+col]
			if cell.Glyph == 0 {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(s.style(cell.Color).Render(string(cell.Glyph)))
		}
	}
	return b.String()
}

// PlainText returns the grid without colour, for tests and logs.
func (s *CellSurface) PlainText() string {
	var b strings.Builder
	for row := 0; row < s.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < s.cols; col++ {
			if g := s.cells[row*s.cols+col].Glyph; g != 0 {
				b.WriteRune(g)
			} else {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

func (s *CellSurface) style(c colorful.Color) lipgloss.Style {
	hex := c.Hex()
	if st, ok := s.styles[hex]; ok {
		return st
	}
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	s.styles[hex] = st
	return st
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
