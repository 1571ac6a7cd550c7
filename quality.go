package matrixrain

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/teranos/matrixrain/trip"
)

// FrameSupervisor checks recorded frames against a baseline set.
//
// Seeded recordings are deterministic, so a frame that drifts from its
// baseline means the rendering changed.
type FrameSupervisor struct {
	baselineDir string
	currentDir  string
	tolerance   float64 // Fraction of pixels allowed to differ
}

// NewFrameSupervisor creates a supervisor with a 5% tolerance.
func NewFrameSupervisor(baselineDir, currentDir string) *FrameSupervisor {
	return &FrameSupervisor{
		baselineDir: baselineDir,
		currentDir:  currentDir,
		tolerance:   0.05,
	}
}

// WithTolerance sets the fraction of pixels allowed to differ.
func (fs *FrameSupervisor) WithTolerance(tolerance float64) *FrameSupervisor {
	fs.tolerance = tolerance
	return fs
}

// Compare checks current/<name>.png against baseline/<name>.png. On a
// regression it writes current/<name>_diff.png and returns a capture trip.
func (fs *FrameSupervisor) Compare(name string) error {
	baselinePath := filepath.Join(fs.baselineDir, name+".png")
	currentPath := filepath.Join(fs.currentDir, name+".png")

	baseline, err := loadImage(baselinePath)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}

	current, err := loadImage(currentPath)
	if err != nil {
		return fmt.Errorf("failed to load current: %w", err)
	}

	difference := Difference(baseline, current)
	if difference <= fs.tolerance {
		return nil
	}

	diffPath := filepath.Join(fs.currentDir, name+"_diff.png")
	context := trip.Context{
		"frame":      name,
		"difference": difference,
		"tolerance":  fs.tolerance,
	}
	if err := writePNG(diffPath, DiffImage(baseline, current)); err == nil {
		context["diff"] = diffPath
	}

	return trip.NewTrip(trip.KindCapture,
		fmt.Sprintf("frame regression: %.2f%% difference (tolerance: %.2f%%)", difference*100, fs.tolerance*100),
		context)
}

// SetBaseline copies a recorded frame into the baseline directory as <name>.png.
func (fs *FrameSupervisor) SetBaseline(name, framePath string) error {
	if err := os.MkdirAll(fs.baselineDir, 0755); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}

	input, err := os.Open(framePath)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(filepath.Join(fs.baselineDir, name+".png"))
	if err != nil {
		return err
	}
	defer output.Close()

	_, err = io.Copy(output, input)
	return err
}

// Difference returns the fraction of pixels that differ between a and b.
// Images of different bounds are entirely different.
func Difference(a, b image.Image) float64 {
	bounds := a.Bounds()
	if bounds != b.Bounds() {
		return 1.0
	}

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	different := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !sameColor(a.At(x, y), b.At(x, y)) {
				different++
			}
		}
	}
	return float64(different) / float64(total)
}

// DiffImage marks differing pixels red over a dimmed copy of baseline.
func DiffImage(baseline, current image.Image) *image.RGBA {
	bounds := baseline.Bounds()
	diff := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			base := baseline.At(x, y)
			if !sameColor(base, current.At(x, y)) {
				diff.Set(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			r, g, b, a := base.RGBA()
			diff.Set(x, y, color.RGBA{uint8(r >> 9), uint8(g >> 9), uint8(b >> 9), uint8(a >> 8)})
		}
	}
	return diff
}

func sameColor(a, b color.Color) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	return img, err
}
