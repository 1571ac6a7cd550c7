package operators

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"github.com/teranos/matrixrain"
	"github.com/teranos/matrixrain/trip"
)

// TcellOperator hosts the rain on a tcell screen.
//
// Scheduling is delegated to a matrixrain.Page: timers and resize events run
// on the Page event loop, and every callback is followed by a redraw of the
// screen. The screen must already be initialised; the caller owns Fini.
type TcellOperator struct {
	screen   tcell.Screen
	config   matrixrain.Config
	page     *matrixrain.Page
	surface  *matrixrain.CellSurface
	animator *matrixrain.Animator
	stop     func()

	log *logrus.Entry
}

// NewTcellOperator creates an operator over an initialised screen.
func NewTcellOperator(screen tcell.Screen, cfg matrixrain.Config) *TcellOperator {
	cols, rows := screen.Size()
	page := matrixrain.NewPage(cols*cfg.CellSize, rows*cfg.CellSize)
	surface := matrixrain.NewCellSurface(cfg.CellSize)
	page.Attach(cfg.Mount, surface)

	log := matrixrain.NewLogger("tcell")
	return &TcellOperator{
		screen:   screen,
		config:   cfg,
		page:     page,
		surface:  surface,
		animator: matrixrain.New(cfg).WithLogger(log),
		log:      log,
	}
}

// NewTerminalScreen creates and initialises the real terminal screen.
func NewTerminalScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, trip.Wrap(trip.KindHost, "failed to create terminal screen", err, nil).WithSeverity(trip.Fall)
	}
	if err := screen.Init(); err != nil {
		return nil, trip.Wrap(trip.KindHost, "failed to initialise terminal screen", err, nil).WithSeverity(trip.Fall)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.HideCursor()
	return screen, nil
}

// WithRand injects the random source used by the Animator.
func (op *TcellOperator) WithRand(rng matrixrain.Rand) *TcellOperator {
	op.animator.WithRand(rng)
	return op
}

// Start mounts the Animator on the operator.
func (op *TcellOperator) Start() *TcellOperator {
	op.stop = op.animator.Start(op)
	return op
}

// Animator returns the Animator hosted by this operator.
func (op *TcellOperator) Animator() *matrixrain.Animator {
	return op.animator
}

// Surface returns the CellSurface the rain paints on.
func (op *TcellOperator) Surface() *matrixrain.CellSurface {
	return op.surface
}

// Lookup implements matrixrain.Host.
func (op *TcellOperator) Lookup(id string) (matrixrain.Surface, bool) {
	return op.page.Lookup(id)
}

// Viewport implements matrixrain.Host.
func (op *TcellOperator) Viewport() (int, int) {
	return op.page.Viewport()
}

// OnResize implements matrixrain.Host.
func (op *TcellOperator) OnResize(fn func()) func() {
	return op.page.OnResize(func() {
		fn()
		op.draw()
	})
}

// Every implements matrixrain.Host.
func (op *TcellOperator) Every(interval time.Duration, fn func()) func() {
	return op.page.Every(interval, func() {
		fn()
		op.draw()
	})
}

// Step fires every timer once and redraws. It must not be used while Run is
// active.
func (op *TcellOperator) Step() {
	op.page.Tick()
}

// Resize applies a terminal size in cells, as an EventResize would.
func (op *TcellOperator) Resize(cols, rows int) {
	op.page.Resize(cols*op.config.CellSize, rows*op.config.CellSize)
}

// Run processes screen events and timers until the user quits or ctx is done.
func (op *TcellOperator) Run(ctx context.Context) error {
	if op.stop == nil {
		op.Start()
	}
	defer op.stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The poller starts from inside the loop, so its resize events are always
	// queued behind running callbacks instead of dispatched inline.
	polling := false
	done := make(chan struct{})
	op.page.Post(func() {
		if ctx.Err() != nil {
			return
		}
		polling = true
		go func() {
			defer close(done)
			op.pollEvents(ctx, cancel)
		}()
	})

	err := op.page.Run(ctx)
	if polling {
		op.screen.PostEvent(tcell.NewEventInterrupt(nil))
		<-done
	}

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (op *TcellOperator) pollEvents(ctx context.Context, quit context.CancelFunc) {
	for ctx.Err() == nil {
		switch ev := op.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventInterrupt:
			return
		case *tcell.EventResize:
			cols, rows := ev.Size()
			op.log.WithFields(logrus.Fields{"cols": cols, "rows": rows}).Debug("Terminal resized")
			op.Resize(cols, rows)
		case *tcell.EventKey:
			if isQuitKey(ev) {
				quit()
				return
			}
		}
	}
}

func (op *TcellOperator) draw() {
	op.screen.Clear()
	op.surface.Each(func(col, row int, cell matrixrain.Cell) {
		r, g, b := cell.Color.RGB255()
		style := tcell.StyleDefault.
			Background(tcell.ColorBlack).
			Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
		op.screen.SetContent(col, row, cell.Glyph, nil, style)
	})
	op.screen.Show()
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}
