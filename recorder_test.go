package matrixrain

import (
	"os"
	"path/filepath"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_FilmsFrames(t *testing.T) {
	dir := t.TempDir()

	result := NewRecorder(DefaultConfig(), 800, 600, dir).
		WithRand(NewRand(5)).
		Start().
		Advance(10).
		CaptureFrame("early").
		Advance(30).
		CaptureFrame("late").
		Stop()

	require.True(t, result.Success, result.TripReport)
	assert.Equal(t, 40, result.Ticks)
	assert.Equal(t, 57, result.Columns)
	assert.Equal(t, []string{
		filepath.Join(dir, "frame_000_early.png"),
		filepath.Join(dir, "frame_001_late.png"),
	}, result.Frames)

	for _, frame := range result.Frames {
		info, err := os.Stat(frame)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestRecorder_ResizeFollowsViewport(t *testing.T) {
	rec := NewRecorder(DefaultConfig(), 800, 600, t.TempDir()).
		WithRand(NewRand(1)).
		Start().
		Advance(3)
	require.Equal(t, 57, rec.Animator().Columns())

	rec.Resize(1200, 600)
	assert.Equal(t, 85, rec.Animator().Columns())
	assert.Equal(t, 1200, rec.Surface().Width())

	result := rec.Advance(2).Stop()
	assert.Equal(t, 85, result.Columns)
	assert.Equal(t, 5, result.Ticks)
}

func TestRecorder_CaptureFailureIsAStumble(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	result := NewRecorder(DefaultConfig(), 140, 140, blocker).
		WithRand(NewRand(1)).
		Start().
		Advance(1).
		CaptureFrame("lost").
		Advance(1).
		Stop()

	assert.False(t, result.Success)
	assert.Empty(t, result.Frames)
	assert.Equal(t, 2, result.Ticks)
	assert.Contains(t, result.TripReport, "1 stumbles")
	assert.Contains(t, result.TripReport, "label: lost")
}

func TestRecorder_SeededRecordingsMatch(t *testing.T) {
	record := func(dir string) string {
		result := NewRecorder(DefaultConfig(), 280, 280, dir).
			WithRand(NewRand(99)).
			Start().
			Advance(30).
			CaptureFrame("take").
			Stop()
		require.Len(t, result.Frames, 1)
		return result.Frames[0]
	}

	first, second := t.TempDir(), t.TempDir()
	record(first)
	record(second)

	supervisor := NewFrameSupervisor(first, second).WithTolerance(0)
	assert.NoError(t, supervisor.Compare("frame_000_take"))
}

func TestRecorder_WritesThumbnails(t *testing.T) {
	dir := t.TempDir()

	result := NewRecorder(DefaultConfig(), 800, 600, dir).
		WithRand(NewRand(3)).
		WithThumbnails(100).
		Start().
		Advance(5).
		CaptureFrame("small").
		Stop()

	require.True(t, result.Success, result.TripReport)
	require.Equal(t, []string{filepath.Join(dir, "frame_000_small_thumb.png")}, result.Thumbnails)

	file, err := os.Open(result.Thumbnails[0])
	require.NoError(t, err)
	defer file.Close()
	cfg, err := png.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 75, cfg.Height)
}
