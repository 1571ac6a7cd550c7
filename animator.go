// Package matrixrain renders a "digital rain" of falling characters onto a
// drawing surface.
//
// The rain is decoration: an Animator finds its surface on a Host, sizes it
// to the viewport, and repaints it on a fixed interval. Every column carries a
// cursor that walks down one cell per tick and, once past the bottom edge,
// occasionally restarts at the top. If the surface is not mounted the
// Animator does nothing at all.
//
// Basic usage:
//
//	page := matrixrain.NewPage(1280, 720)
//	page.Attach("matrix", matrixrain.NewImageSurface())
//
//	stop := matrixrain.New(matrixrain.DefaultConfig()).
//		WithRand(matrixrain.NewRand(42)).
//		Start(page)
//	defer stop()
//
//	page.Run(ctx)
//
// Terminal hosts live in the operators package and a cobra CLI in
// cmd/matrixrain.
package matrixrain

import (
	"image"
	"image/color"
	"time"

	"github.com/sirupsen/logrus"
)

// Animator owns the per-column state of one rain effect.
//
// All state is reached through the Animator value; callbacks registered on
// the Host capture it by closure. The Host serialises those callbacks, so the
// Animator does no locking.
type Animator struct {
	config   Config
	alphabet []rune
	accent   color.RGBA
	fade     color.NRGBA

	surface Surface
	host    Host
	cursors []int

	rng Rand
	log *logrus.Entry

	cancelTimer  func()
	removeResize func()
}

// New creates an Animator for cfg. Invalid fields are not rejected here; run
// cfg.Validate first if the config came from a user.
func New(cfg Config) *Animator {
	alphabet := []rune(cfg.Alphabet)
	if len(alphabet) == 0 {
		alphabet = []rune(DefaultConfig().Alphabet)
	}
	return &Animator{
		config:   cfg,
		alphabet: alphabet,
		accent:   cfg.AccentColor(),
		fade:     cfg.FadeColor(),
		rng:      NewRand(uint64(time.Now().UnixNano())),
		log:      discardLogger(),
	}
}

// WithRand injects the random source, e.g. a seeded one for reproducible frames.
func (a *Animator) WithRand(rng Rand) *Animator {
	a.rng = rng
	return a
}

// WithLogger sets the logger used for debug tracing.
func (a *Animator) WithLogger(log *logrus.Entry) *Animator {
	a.log = log
	return a
}

// Start mounts the Animator on host and begins repainting.
//
// When host has no surface under the configured mount id, Start does nothing:
// no surface calls, no listeners, no timers, no log lines. The returned stop
// function is always safe to call, more than once. Starting an Animator that
// is already running returns the existing stop function and registers nothing.
func (a *Animator) Start(host Host) (stop func()) {
	if a.cancelTimer != nil {
		return a.Stop
	}

	surface, ok := host.Lookup(a.config.Mount)
	if !ok || surface == nil {
		return func() {}
	}

	a.host = host
	a.surface = surface
	a.applyViewport()
	a.removeResize = host.OnResize(a.Resize)
	a.resetCursors()
	a.cancelTimer = host.Every(a.config.Interval, a.Repaint)

	a.log.WithFields(logrus.Fields{
		"mount":    a.config.Mount,
		"width":    surface.Width(),
		"height":   surface.Height(),
		"columns":  len(a.cursors),
		"interval": a.config.Interval,
	}).Debug("Rain mounted")

	return a.Stop
}

// Stop cancels the repaint timer and the resize listener.
func (a *Animator) Stop() {
	if a.cancelTimer != nil {
		a.cancelTimer()
		a.cancelTimer = nil
	}
	if a.removeResize != nil {
		a.removeResize()
		a.removeResize = nil
	}
}

// Resize re-applies the viewport size and rebuilds the column cursors.
// Every column restarts at the top; continuity across a resize is not kept.
func (a *Animator) Resize() {
	if a.surface == nil {
		return
	}
	a.applyViewport()
	a.resetCursors()

	a.log.WithFields(logrus.Fields{
		"width":   a.surface.Width(),
		"height":  a.surface.Height(),
		"columns": len(a.cursors),
	}).Debug("Rain resized")
}

// Repaint draws one tick of rain.
func (a *Animator) Repaint() {
	if a.surface == nil {
		return
	}

	width, height := a.surface.Width(), a.surface.Height()
	cell := a.config.CellSize

	a.surface.FillRect(image.Rect(0, 0, width, height), a.fade)
	a.surface.SetFont(cell)

	for i := range a.cursors {
		glyph := a.alphabet[a.rng.IntN(len(a.alphabet))]
		y := a.cursors[i] * cell
		a.surface.DrawGlyph(i*cell, y, glyph, a.accent)

		if y > height && a.rng.Float64() < a.config.ResetChance {
			a.cursors[i] = 0
		}
		a.cursors[i]++
	}
}

// Mounted reports whether Start found a surface.
func (a *Animator) Mounted() bool {
	return a.surface != nil
}

// Columns returns the current number of columns.
func (a *Animator) Columns() int {
	return len(a.cursors)
}

// Cursors returns a copy of the per-column cursors, in cell units.
func (a *Animator) Cursors() []int {
	out := make([]int, len(a.cursors))
	copy(out, a.cursors)
	return out
}

func (a *Animator) applyViewport() {
	width, height := a.host.Viewport()
	a.surface.SetSize(width, height)
}

func (a *Animator) resetCursors() {
	columns := 0
	if a.config.CellSize > 0 {
		columns = a.surface.Width() / a.config.CellSize
	}
	a.cursors = make([]int, columns)
	for i := range a.cursors {
		a.cursors[i] = 1
	}
}
