package matrixrain

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accent = color.RGBA{0, 255, 157, 255}

func TestCellSurface_Grid(t *testing.T) {
	s := NewCellSurface(14)
	s.SetSize(80*14+5, 24*14)

	cols, rows := s.Grid()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24, rows)
	assert.Equal(t, 80*14+5, s.Width())
	assert.Equal(t, 24*14, s.Height())
	assert.Equal(t, 14, s.CellSize())

	s.SetSize(-1, -1)
	cols, rows = s.Grid()
	assert.Zero(t, cols)
	assert.Zero(t, rows)
}

func TestCellSurface_DrawGlyphMapsBaselineToCell(t *testing.T) {
	s := NewCellSurface(14)
	s.SetSize(5*14, 3*14)

	s.DrawGlyph(0, 14, '1', accent)
	s.DrawGlyph(2*14, 3*14, '0', accent)

	assert.Equal(t, '1', s.At(0, 0).Glyph)
	assert.Equal(t, '0', s.At(2, 2).Glyph)

	r, g, b := s.At(0, 0).Color.RGB255()
	assert.Equal(t, [3]uint8{0, 255, 157}, [3]uint8{r, g, b})

	// Cursor 0 and past-bottom draws are clipped
	s.DrawGlyph(14, 0, 'x', accent)
	s.DrawGlyph(14, 4*14, 'x', accent)
	s.DrawGlyph(5*14, 14, 'x', accent)
	assert.NotContains(t, s.PlainText(), "x")
}

func TestCellSurface_FillRectFadesToBlank(t *testing.T) {
	s := NewCellSurface(14)
	s.SetSize(2*14, 14)
	s.DrawGlyph(0, 14, '1', accent)
	s.DrawGlyph(14, 14, '0', accent)

	fade := DefaultConfig().FadeColor()
	full := image.Rect(0, 0, s.Width(), s.Height())

	s.FillRect(full, fade)
	_, g, _ := s.At(0, 0).Color.RGB255()
	assert.Less(t, g, uint8(255))
	assert.Greater(t, g, uint8(230))

	// Only the left cell is covered here
	s.FillRect(image.Rect(0, 0, 14, 14), fade)
	_, left, _ := s.At(0, 0).Color.RGB255()
	_, right, _ := s.At(1, 0).Color.RGB255()
	assert.Less(t, left, right)

	for i := 0; i < 200; i++ {
		s.FillRect(full, fade)
	}
	assert.Equal(t, Cell{}, s.At(0, 0))
	assert.Equal(t, Cell{}, s.At(1, 0))

	// A transparent fill is ignored
	s.DrawGlyph(0, 14, '1', accent)
	s.FillRect(full, color.NRGBA{})
	assert.Equal(t, '1', s.At(0, 0).Glyph)
}

func TestCellSurface_RenderAndEach(t *testing.T) {
	s := NewCellSurface(14)
	s.SetSize(3*14, 2*14)
	s.DrawGlyph(14, 14, '1', accent)
	s.DrawGlyph(0, 28, '0', accent)

	assert.Equal(t, " 1 \n0  ", s.PlainText())

	rendered := s.Render()
	assert.Len(t, strings.Split(rendered, "\n"), 2)
	assert.Contains(t, rendered, "1")
	assert.Contains(t, rendered, "0")

	var visited [][2]int
	s.Each(func(col, row int, cell Cell) {
		visited = append(visited, [2]int{col, row})
	})
	assert.Equal(t, [][2]int{{1, 0}, {0, 1}}, visited)
}

func TestCellSurface_HostsAnimator(t *testing.T) {
	page := NewPage(10*14, 5*14)
	s := NewCellSurface(14)
	page.Attach("matrix", s)

	a := New(DefaultConfig()).WithRand(NewRand(1))
	a.Start(page)
	require.Equal(t, 10, a.Columns())

	page.Tick()
	top := strings.Split(s.PlainText(), "\n")[0]
	assert.Len(t, strings.Trim(top, "01"), 0)

	for i := 0; i < 3; i++ {
		page.Tick()
	}
	for col := 0; col < 10; col++ {
		assert.NotZero(t, s.At(col, 3).Glyph, "column %d", col)
	}
}
