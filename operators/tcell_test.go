package operators

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/matrixrain"
)

func newSimScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(cols, rows)
	return screen
}

func rowText(screen tcell.SimulationScreen, row int) string {
	cells, width, _ := screen.GetContents()
	out := make([]rune, 0, width)
	for col := 0; col < width; col++ {
		runes := cells[row*width+col].Runes
		if len(runes) == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, runes[0])
	}
	return string(out)
}

func TestTcellOperator_StepDrawsTopRow(t *testing.T) {
	screen := newSimScreen(t, 20, 10)

	op := NewTcellOperator(screen, matrixrain.DefaultConfig()).
		WithRand(matrixrain.NewRand(4)).
		Start()
	require.Equal(t, 20, op.Animator().Columns())

	op.Step()

	top := rowText(screen, 0)
	assert.Len(t, top, 20)
	for _, r := range top {
		assert.Contains(t, "01", string(r))
	}
	assert.Equal(t, "                    ", rowText(screen, 1))

	_, _, style, _ := screen.GetContent(0, 0)
	fg, bg, _ := style.Decompose()
	assert.Equal(t, tcell.NewRGBColor(0, 255, 157), fg)
	assert.Equal(t, tcell.ColorBlack, bg)
}

func TestTcellOperator_ResizeRederivesColumns(t *testing.T) {
	screen := newSimScreen(t, 20, 10)
	op := NewTcellOperator(screen, matrixrain.DefaultConfig()).
		WithRand(matrixrain.NewRand(5)).
		Start()

	op.Step()
	op.Step()
	assert.Equal(t, 3, op.Animator().Cursors()[0])

	op.Resize(30, 10)
	assert.Equal(t, 30, op.Animator().Columns())
	for _, c := range op.Animator().Cursors() {
		assert.Equal(t, 1, c)
	}
	w, _ := op.Viewport()
	assert.Equal(t, 30*14, w)
}

func TestTcellOperator_RunStopsOnContext(t *testing.T) {
	screen := newSimScreen(t, 10, 5)
	cfg := matrixrain.DefaultConfig()
	cfg.Interval = 5 * time.Millisecond

	op := NewTcellOperator(screen, cfg).WithRand(matrixrain.NewRand(6))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, op.Run(ctx))
	assert.True(t, op.Animator().Mounted())
	assert.Greater(t, op.Animator().Cursors()[0], 1)
}

func TestTcellOperator_RunStopsOnQuitKey(t *testing.T) {
	screen := newSimScreen(t, 10, 5)
	op := NewTcellOperator(screen, matrixrain.DefaultConfig()).Start()

	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	require.NoError(t, op.Run(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTcellOperator_RunQueuesResizeEvents(t *testing.T) {
	screen := newSimScreen(t, 10, 5)
	cfg := matrixrain.DefaultConfig()
	cfg.Interval = 2 * time.Millisecond

	op := NewTcellOperator(screen, cfg).WithRand(matrixrain.NewRand(7)).Start()
	require.NoError(t, screen.PostEvent(tcell.NewEventResize(30, 5)))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, op.Run(ctx))

	assert.Equal(t, 30, op.Animator().Columns())
	w, _ := op.Viewport()
	assert.Equal(t, 30*14, w)
}

func TestIsQuitKey(t *testing.T) {
	assert.True(t, isQuitKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.True(t, isQuitKey(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
	assert.True(t, isQuitKey(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, isQuitKey(tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)))
	assert.False(t, isQuitKey(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)))
}
