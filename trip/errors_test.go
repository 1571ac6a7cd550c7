package trip

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTrip_Core tests core Trip functionality
func TestTrip_Core(t *testing.T) {
	context := Context{
		"path":      "frames/frame_000_initial.png",
		"operation": "capture",
	}

	tr := NewTrip(KindCapture, "Failed to write frame", context)

	assert.Equal(t, KindCapture, tr.Kind)
	assert.Equal(t, "Failed to write frame", tr.Message)
	assert.Equal(t, context, tr.Context)
	assert.Equal(t, Error, tr.Severity)
	assert.WithinDuration(t, time.Now(), tr.Timestamp, time.Second)

	assert.Equal(t, "[capture:error] Failed to write frame", tr.Error())
}

// TestTrip_Severities tests different severity levels
func TestTrip_Severities(t *testing.T) {
	stumble := NewStumble(KindCapture, "Frame skipped", nil)
	error_ := NewTrip(KindConfig, "Invalid cell size", nil)
	fall := NewFall(KindHost, "Terminal unavailable", nil)

	assert.Equal(t, Stumble, stumble.Severity)
	assert.Equal(t, Error, error_.Severity)
	assert.Equal(t, Fall, fall.Severity)

	assert.True(t, stumble.CanRecover())
	assert.False(t, error_.CanRecover())
	assert.False(t, fall.CanRecover())

	assert.False(t, stumble.IsFall())
	assert.False(t, error_.IsFall())
	assert.True(t, fall.IsFall())
}

// TestTrip_Wrap tests that wrapped causes stay visible to errors.Is
func TestTrip_Wrap(t *testing.T) {
	tr := Wrap(KindConfig, "failed to read config", os.ErrNotExist, Context{"path": "rain.yml"})

	assert.True(t, errors.Is(tr, os.ErrNotExist))
	assert.Contains(t, tr.Error(), "failed to read config")
	assert.Contains(t, tr.Error(), os.ErrNotExist.Error())

	var target *Trip
	require.True(t, errors.As(error(tr), &target))
	assert.Equal(t, KindConfig, target.Kind)
}

// TestTrip_Methods tests trip methods
func TestTrip_Methods(t *testing.T) {
	tr := NewTrip(KindConfig, "Test message", Context{"key": "value", "another": 2})

	tr.WithSeverity(Fall)
	assert.Equal(t, Fall, tr.Severity)

	val, exists := tr.GetContext("key")
	assert.True(t, exists)
	assert.Equal(t, "value", val)

	_, exists = tr.GetContext("missing")
	assert.False(t, exists)

	_, exists = NewTrip(KindHost, "no context", nil).GetContext("key")
	assert.False(t, exists)

	detailed := tr.DetailedString()
	assert.Contains(t, detailed, "Test message")
	assert.Contains(t, detailed, "key: value")
	assert.Less(t, strings.Index(detailed, "another: 2"), strings.Index(detailed, "key: value"))
}

// TestHandler_Basic tests basic Handler functionality
func TestHandler_Basic(t *testing.T) {
	handler := NewHandler("recorder")

	assert.False(t, handler.HasTrips())
	assert.False(t, handler.HasStumbles())
	assert.Equal(t, "[recorder] No issues", handler.Summary())

	handler.Record(NewStumble(KindCapture, "Frame skipped", nil))
	assert.True(t, handler.HasStumbles())
	assert.False(t, handler.HasTrips())

	handler.Record(NewFall(KindHost, "Screen gone", nil))
	assert.True(t, handler.HasTrips())
	assert.Len(t, handler.Stumbles(), 1)
	assert.Len(t, handler.Trips(), 1)
	assert.Equal(t, "[recorder] 1 trips, 1 stumbles", handler.Summary())

	report := handler.DetailedReport()
	assert.Contains(t, report, "=== recorder Report ===")
	assert.Contains(t, report, "Frame skipped")
	assert.Contains(t, report, "Screen gone")
}

// TestSeverity_String tests severity string representation
func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "stumble", Stumble.String())
	assert.Equal(t, "error", Error.String())
	assert.Equal(t, "fall", Fall.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
