package matrixrain

import (
	"image"
	"image/color"
	"math/rand/v2"
	"time"
)

// Surface is a 2-D drawing target measured in pixels.
//
// Coordinates follow canvas conventions: (0, 0) is the top-left corner and the
// y passed to DrawGlyph is the text baseline.
type Surface interface {
	Width() int
	Height() int
	// SetSize resizes the surface; like a canvas, resizing clears it
	SetSize(width, height int)
	// FillRect composites c over the rectangle, honouring c's alpha
	FillRect(r image.Rectangle, c color.Color)
	// SetFont selects a monospace face of the given pixel size
	SetFont(sizePx int)
	// DrawGlyph draws one character with its baseline at (x, y)
	DrawGlyph(x, y int, glyph rune, c color.Color)
}

// Host is the environment a surface lives in: it resolves mount points,
// reports the viewport, and schedules callbacks.
//
// A Host must never run a resize callback and a timer callback at the same
// time. Callers rely on this and do no locking of their own.
type Host interface {
	// Lookup finds the surface mounted under id
	Lookup(id string) (Surface, bool)
	// Viewport returns the current viewport size in pixels
	Viewport() (width, height int)
	// OnResize registers fn for viewport size changes
	OnResize(fn func()) (remove func())
	// Every runs fn repeatedly at interval until cancelled
	Every(interval time.Duration, fn func()) (cancel func())
}

// Rand is the random source used for glyph choice and column restarts.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a seeded PCG source, so identical seeds give identical rain.
func NewRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
