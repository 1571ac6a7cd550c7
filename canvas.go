package matrixrain

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/teranos/matrixrain/trip"
)

var (
	monoFont     *opentype.Font
	monoFontErr  error
	monoFontOnce sync.Once
)

func loadMonoFont() (*opentype.Font, error) {
	monoFontOnce.Do(func() {
		monoFont, monoFontErr = opentype.Parse(gomono.TTF)
	})
	return monoFont, monoFontErr
}

// ImageSurface is a pixel canvas backed by an *image.RGBA.
//
// Glyphs are rasterised with Go Mono at the size passed to SetFont. Before the
// first SetFont, or if Go Mono cannot be loaded, the 7x13 basic font is used.
type ImageSurface struct {
	frame      *image.RGBA
	background color.RGBA
	face       font.Face
	faces      map[int]font.Face
}

// NewImageSurface creates an empty 0x0 surface with a black background.
// The Animator sizes it to the viewport on Start.
func NewImageSurface() *ImageSurface {
	return &ImageSurface{
		frame:      image.NewRGBA(image.Rect(0, 0, 0, 0)),
		background: color.RGBA{0, 0, 0, 255},
		face:       basicfont.Face7x13,
		faces:      make(map[int]font.Face),
	}
}

// Width implements Surface.
func (s *ImageSurface) Width() int { return s.frame.Bounds().Dx() }

// Height implements Surface.
func (s *ImageSurface) Height() int { return s.frame.Bounds().Dy() }

// SetSize implements Surface. The new frame is cleared to the background.
func (s *ImageSurface) SetSize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	s.frame = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(s.frame, s.frame.Bounds(), image.NewUniform(s.background), image.Point{}, draw.Src)
}

// FillRect implements Surface.
func (s *ImageSurface) FillRect(r image.Rectangle, c color.Color) {
	r = r.Intersect(s.frame.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(s.frame, r, image.NewUniform(c), image.Point{}, draw.Over)
}

// SetFont implements Surface.
func (s *ImageSurface) SetFont(sizePx int) {
	if sizePx <= 0 {
		return
	}
	if face, ok := s.faces[sizePx]; ok {
		s.face = face
		return
	}

	f, err := loadMonoFont()
	if err != nil {
		return
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(sizePx),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return
	}
	s.faces[sizePx] = face
	s.face = face
}

// DrawGlyph implements Surface.
func (s *ImageSurface) DrawGlyph(x, y int, glyph rune, c color.Color) {
	drawer := &font.Drawer{
		Dst:  s.frame,
		Src:  image.NewUniform(c),
		Face: s.face,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(string(glyph))
}

// Frame returns the live frame. Callers must not keep it across SetSize.
func (s *ImageSurface) Frame() *image.RGBA {
	return s.frame
}

// Snapshot returns a copy of the current frame.
func (s *ImageSurface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.frame.Bounds())
	draw.Draw(out, out.Bounds(), s.frame, s.frame.Bounds().Min, draw.Src)
	return out
}

// Thumbnail returns the frame scaled to fit within maxWidth x maxHeight.
func (s *ImageSurface) Thumbnail(maxWidth, maxHeight int) *image.RGBA {
	w, h := s.Width(), s.Height()
	if w == 0 || h == 0 || maxWidth <= 0 || maxHeight <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h), 1)
	dst := image.NewRGBA(image.Rect(0, 0, max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))))
	draw.CatmullRom.Scale(dst, dst.Bounds(), s.frame, s.frame.Bounds(), draw.Src, nil)
	return dst
}

// CaptureFrame writes the current frame to path as PNG, creating parent
// directories as needed.
func (s *ImageSurface) CaptureFrame(path string) error {
	return writePNG(path, s.frame)
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return trip.Wrap(trip.KindCapture, "failed to create frame directory", err,
				trip.Context{"dir": dir})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return trip.Wrap(trip.KindCapture, "failed to create frame file", err,
			trip.Context{"path": path})
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return trip.Wrap(trip.KindCapture, "failed to encode frame", err,
			trip.Context{"path": path})
	}
	return nil
}

// String describes the surface for logs.
func (s *ImageSurface) String() string {
	return fmt.Sprintf("ImageSurface(%dx%d)", s.Width(), s.Height())
}
