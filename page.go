package matrixrain

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Page is an in-process Host: a viewport, a set of mounted surfaces and an
// event loop that runs timer and resize callbacks one at a time.
//
// A Page can be driven two ways. Run starts real tickers and blocks until the
// context is done. Tick fires every timer once on the caller's goroutine,
// which is how recordings and tests step the rain frame by frame.
type Page struct {
	mu       sync.Mutex
	width    int
	height   int
	surfaces map[string]Surface

	nextID  int
	resize  map[int]func()
	timers  map[int]*pageTimer
	calls   chan func()
	running context.Context

	log *logrus.Entry
}

type pageTimer struct {
	interval time.Duration
	fn       func()
	stop     chan struct{}
	once     sync.Once
}

func (t *pageTimer) cancel() {
	t.once.Do(func() { close(t.stop) })
}

// NewPage creates a page with a viewport of width x height pixels.
func NewPage(width, height int) *Page {
	return &Page{
		width:    width,
		height:   height,
		surfaces: make(map[string]Surface),
		resize:   make(map[int]func()),
		timers:   make(map[int]*pageTimer),
		calls:    make(chan func(), 16),
		log:      NewLogger("page"),
	}
}

// Attach mounts s under id, replacing any previous surface.
func (p *Page) Attach(id string, s Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surfaces[id] = s
}

// Lookup implements Host.
func (p *Page) Lookup(id string) (Surface, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.surfaces[id]
	return s, ok
}

// Viewport implements Host.
func (p *Page) Viewport() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// OnResize implements Host.
func (p *Page) OnResize(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.resize[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.resize, id)
	}
}

// Every implements Host. Timers registered while Run is active start ticking
// immediately.
func (p *Page) Every(interval time.Duration, fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	t := &pageTimer{interval: interval, fn: fn, stop: make(chan struct{})}
	p.timers[id] = t
	if p.running != nil {
		go p.tick(p.running, t)
	}

	return func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		t.cancel()
	}
}

// Listeners returns the number of registered resize handlers.
func (p *Page) Listeners() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.resize)
}

// Timers returns the number of active timers.
func (p *Page) Timers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Resize changes the viewport and notifies resize handlers. While Run is
// active the handlers are queued onto the event loop; otherwise they run
// before Resize returns.
func (p *Page) Resize(width, height int) {
	p.mu.Lock()
	p.width, p.height = width, height
	handlers := p.resizeHandlers()
	running := p.running
	p.mu.Unlock()

	dispatch := func() {
		for _, fn := range handlers {
			fn()
		}
	}

	if running == nil {
		dispatch()
		return
	}

	select {
	case p.calls <- dispatch:
	case <-running.Done():
	}
}

// Post queues fn onto the event loop. Calls posted before Run execute once
// the loop has started. Post blocks when the queue is full.
func (p *Page) Post(fn func()) {
	p.calls <- fn
}

// Tick fires every timer once, in registration order, on the calling goroutine.
// It must not be used while Run is active.
func (p *Page) Tick() {
	p.mu.Lock()
	fns := make([]func(), 0, len(p.timers))
	for _, id := range sortedIDs(p.timers) {
		fns = append(fns, p.timers[id].fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Run drives timers in real time until ctx is done. All callbacks execute on
// the goroutine that called Run.
func (p *Page) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	p.running = ctx
	for _, t := range p.timers {
		go p.tick(ctx, t)
	}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = nil
		p.mu.Unlock()
	}()

	p.log.WithField("timers", p.Timers()).Debug("Page event loop started")

	for {
		select {
		case <-ctx.Done():
			p.log.Debug("Page event loop stopped")
			return ctx.Err()
		case fn := <-p.calls:
			fn()
		}
	}
}

func (p *Page) tick(ctx context.Context, t *pageTimer) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		case <-ticker.C:
			// Run the callback only if the timer is still live once the loop gets to it.
			call := func() {
				select {
				case <-t.stop:
				default:
					t.fn()
				}
			}
			select {
			case p.calls <- call:
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			}
		}
	}
}

func (p *Page) resizeHandlers() []func() {
	handlers := make([]func(), 0, len(p.resize))
	for _, id := range sortedIDs(p.resize) {
		handlers = append(handlers, p.resize[id])
	}
	return handlers
}

func sortedIDs[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}
