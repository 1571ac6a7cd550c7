// Package operators hosts the rain in a terminal.
//
// TeaOperator runs it as a bubbletea program; TcellOperator drives a tcell
// screen directly. Both map one terminal cell to one glyph cell, so the
// viewport in pixels is the terminal size times the configured cell size.
package operators

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/teranos/matrixrain"
)

// tickMsg fires a registered timer.
type tickMsg struct {
	id int
}

type teaTimer struct {
	interval time.Duration
	fn       func()
}

// TeaOperator is a bubbletea model that is also the Host of one Animator.
//
// tea.WindowSizeMsg is the resize signal and each timer is a re-armed
// tea.Tick. bubbletea runs Update on a single goroutine, which gives the
// Animator the serial callbacks it needs.
type TeaOperator struct {
	config   matrixrain.Config
	surface  *matrixrain.CellSurface
	mounts   map[string]matrixrain.Surface
	animator *matrixrain.Animator
	stop     func()

	width  int
	height int

	nextID  int
	resize  map[int]func()
	timers  map[int]*teaTimer
	pending []tea.Cmd
	started bool

	log *logrus.Entry
}

// NewTeaOperator creates an operator with a CellSurface mounted under cfg.Mount.
func NewTeaOperator(cfg matrixrain.Config) *TeaOperator {
	surface := matrixrain.NewCellSurface(cfg.CellSize)
	log := matrixrain.NewLogger("tea")
	return &TeaOperator{
		config:   cfg,
		surface:  surface,
		mounts:   map[string]matrixrain.Surface{cfg.Mount: surface},
		animator: matrixrain.New(cfg).WithLogger(log),
		resize:   make(map[int]func()),
		timers:   make(map[int]*teaTimer),
		log:      log,
	}
}

// WithRand injects the random source used by the Animator.
func (op *TeaOperator) WithRand(rng matrixrain.Rand) *TeaOperator {
	op.animator.WithRand(rng)
	return op
}

// WithViewport sets the initial terminal size in cells, for use before the
// first tea.WindowSizeMsg arrives.
func (op *TeaOperator) WithViewport(cols, rows int) *TeaOperator {
	op.width, op.height = cols*op.config.CellSize, rows*op.config.CellSize
	return op
}

// Start mounts the Animator on the operator.
func (op *TeaOperator) Start() *TeaOperator {
	op.stop = op.animator.Start(op)
	return op
}

// Run starts the bubbletea program on the alternate screen and blocks until
// the user quits or ctx is done.
func (op *TeaOperator) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	if op.stop == nil {
		op.Start()
	}
	defer op.stop()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(op, opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Animator returns the Animator hosted by this operator.
func (op *TeaOperator) Animator() *matrixrain.Animator {
	return op.animator
}

// Surface returns the CellSurface the rain paints on.
func (op *TeaOperator) Surface() *matrixrain.CellSurface {
	return op.surface
}

// Lookup implements matrixrain.Host.
func (op *TeaOperator) Lookup(id string) (matrixrain.Surface, bool) {
	s, ok := op.mounts[id]
	return s, ok
}

// Viewport implements matrixrain.Host.
func (op *TeaOperator) Viewport() (int, int) {
	return op.width, op.height
}

// OnResize implements matrixrain.Host.
func (op *TeaOperator) OnResize(fn func()) func() {
	id := op.nextID
	op.nextID++
	op.resize[id] = fn
	return func() { delete(op.resize, id) }
}

// Every implements matrixrain.Host. Timers registered after the program has
// started are armed on the next Update.
func (op *TeaOperator) Every(interval time.Duration, fn func()) func() {
	id := op.nextID
	op.nextID++
	op.timers[id] = &teaTimer{interval: interval, fn: fn}
	if op.started {
		op.pending = append(op.pending, op.arm(id))
	}
	return func() { delete(op.timers, id) }
}

// Init implements tea.Model.
func (op *TeaOperator) Init() tea.Cmd {
	op.started = true
	cmds := make([]tea.Cmd, 0, len(op.timers))
	for id := range op.timers {
		cmds = append(cmds, op.arm(id))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (op *TeaOperator) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if op.stop != nil {
				op.stop()
			}
			return op, tea.Quit
		}

	case tea.WindowSizeMsg:
		op.width = msg.Width * op.config.CellSize
		op.height = msg.Height * op.config.CellSize
		op.log.WithFields(logrus.Fields{"cols": msg.Width, "rows": msg.Height}).Debug("Terminal resized")
		for _, fn := range op.resizeHandlers() {
			fn()
		}

	case tickMsg:
		if t, ok := op.timers[msg.id]; ok {
			t.fn()
			// fn may have cancelled its own timer.
			if _, ok := op.timers[msg.id]; ok {
				cmds = append(cmds, op.arm(msg.id))
			}
		}
	}

	cmds = append(cmds, op.pending...)
	op.pending = nil
	return op, tea.Batch(cmds...)
}

// View implements tea.Model.
func (op *TeaOperator) View() string {
	return op.surface.Render()
}

func (op *TeaOperator) arm(id int) tea.Cmd {
	t := op.timers[id]
	return tea.Tick(t.interval, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

func (op *TeaOperator) resizeHandlers() []func() {
	handlers := make([]func(), 0, len(op.resize))
	for id := 0; id < op.nextID; id++ {
		if fn, ok := op.resize[id]; ok {
			handlers = append(handlers, fn)
		}
	}
	return handlers
}
