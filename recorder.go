package matrixrain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teranos/matrixrain/trip"
)

// Recorder films the rain frame by frame onto PNG files.
//
// It mounts an Animator on a Page with an ImageSurface and steps the page
// manually, so a seeded recording is reproducible regardless of wall-clock
// timing. Frame write failures are collected as stumbles and do not stop the
// recording.
//
// Example usage:
//
//	result := matrixrain.NewRecorder(cfg, 800, 600, "film/").
//		WithRand(matrixrain.NewRand(7)).
//		Start().
//		Advance(40).
//		CaptureFrame("settled").
//		Resize(1200, 600).
//		Advance(10).
//		CaptureFrame("widened").
//		Stop()
type Recorder struct {
	config   Config
	page     *Page
	surface  *ImageSurface
	animator *Animator
	stop     func()

	filmDir    string
	thumbSize  int
	frameCount int
	ticks      int
	frames     []string
	thumbnails []string
	startTime  time.Time

	trips *trip.Handler
	log   *logrus.Entry
}

// RecordResult summarises a recording session.
type RecordResult struct {
	Frames     []string      // Paths of frames written, in order
	Thumbnails []string      // Paths of thumbnails written, in order
	Ticks      int           // Repaints performed
	Columns    int           // Columns at the end of the session
	Duration   time.Duration // Wall-clock time spent recording
	Success    bool          // No stumbles or trips were recorded
	TripReport string        // Detailed report of anything that went wrong
}

// NewRecorder prepares a recording of a width x height viewport into filmDir.
func NewRecorder(cfg Config, width, height int, filmDir string) *Recorder {
	page := NewPage(width, height)
	surface := NewImageSurface()
	page.Attach(cfg.Mount, surface)

	log := NewLogger("recorder")
	return &Recorder{
		config:   cfg,
		page:     page,
		surface:  surface,
		animator: New(cfg).WithLogger(log),
		filmDir:  filmDir,
		trips:    trip.NewHandler("recorder"),
		log:      log,
	}
}

// WithRand injects the random source used by the Animator.
func (r *Recorder) WithRand(rng Rand) *Recorder {
	r.animator.WithRand(rng)
	return r
}

// WithThumbnails also writes a copy of every captured frame scaled to fit in
// size x size pixels, as frame_<NNN>_<label>_thumb.png. Zero disables them.
func (r *Recorder) WithThumbnails(size int) *Recorder {
	r.thumbSize = size
	return r
}

// Start mounts the Animator.
func (r *Recorder) Start() *Recorder {
	r.startTime = time.Now()
	r.stop = r.animator.Start(r.page)
	r.log.WithFields(logrus.Fields{
		"dir":     r.filmDir,
		"columns": r.animator.Columns(),
	}).Info("Recording started")
	return r
}

// Advance performs n repaints.
func (r *Recorder) Advance(n int) *Recorder {
	for i := 0; i < n; i++ {
		r.page.Tick()
		r.ticks++
	}
	return r
}

// Resize changes the viewport, as a window resize would.
func (r *Recorder) Resize(width, height int) *Recorder {
	r.page.Resize(width, height)
	return r
}

// CaptureFrame writes the current frame as frame_<NNN>_<label>.png.
func (r *Recorder) CaptureFrame(label string) *Recorder {
	filename := filepath.Join(r.filmDir, fmt.Sprintf("frame_%03d_%s.png", r.frameCount, label))

	if err := r.surface.CaptureFrame(filename); err != nil {
		r.trips.Record(trip.NewStumble(trip.KindCapture, err.Error(), trip.Context{
			"label": label,
			"path":  filename,
			"tick":  r.ticks,
		}))
		r.log.WithError(err).WithField("path", filename).Warn("Failed to capture frame")
		return r
	}

	r.frameCount++
	r.frames = append(r.frames, filename)
	r.log.WithField("path", filename).Debug("Frame captured")

	if r.thumbSize > 0 {
		r.captureThumbnail(strings.TrimSuffix(filename, ".png")+"_thumb.png", label)
	}
	return r
}

func (r *Recorder) captureThumbnail(path, label string) {
	if err := writePNG(path, r.surface.Thumbnail(r.thumbSize, r.thumbSize)); err != nil {
		r.trips.Record(trip.NewStumble(trip.KindCapture, err.Error(), trip.Context{
			"label": label,
			"path":  path,
			"tick":  r.ticks,
		}))
		r.log.WithError(err).WithField("path", path).Warn("Failed to write thumbnail")
		return
	}
	r.thumbnails = append(r.thumbnails, path)
}

// Surface returns the surface being filmed.
func (r *Recorder) Surface() *ImageSurface {
	return r.surface
}

// Animator returns the Animator being filmed.
func (r *Recorder) Animator() *Animator {
	return r.animator
}

// Stop unmounts the Animator and returns the session result.
func (r *Recorder) Stop() *RecordResult {
	if r.stop != nil {
		r.stop()
	}

	result := &RecordResult{
		Frames:     r.frames,
		Thumbnails: r.thumbnails,
		Ticks:      r.ticks,
		Columns:    r.animator.Columns(),
		Duration:   time.Since(r.startTime),
		Success:    !r.trips.HasTrips() && !r.trips.HasStumbles(),
	}
	if !result.Success {
		result.TripReport = r.trips.DetailedReport()
	}

	r.log.WithFields(logrus.Fields{
		"frames": len(result.Frames),
		"ticks":  result.Ticks,
	}).Info(r.trips.Summary())
	return result
}
