// Package trip provides error values for matrixrain.
//
// The rain never fails loudly: a missing surface is a silent no-op. Trips are
// for the parts around it that can go wrong, such as a bad config file or a
// frame that could not be written to disk. Minor issues are "stumbles" and are
// collected so a recording can keep rolling.
package trip

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kinds of trips raised by matrixrain.
const (
	KindConfig  = "config"  // Invalid or unreadable configuration
	KindCapture = "capture" // Frame capture or comparison failures
	KindHost    = "host"    // Terminal or page host failures
)

// Trip is an error with a kind, a severity and debugging context.
//
// Example usage:
//
//	err := trip.NewTrip(trip.KindConfig, "cell size must be positive",
//	    trip.Context{"cell_size": 0})
type Trip struct {
	Kind      string    // Error category, one of the Kind constants
	Message   string    // Human-readable description
	Context   Context   // Additional debugging information
	Timestamp time.Time // When the error occurred
	Severity  Severity  // How serious this error is
	Err       error     // Underlying cause, if any
}

// Context provides structured debugging information for trips.
type Context map[string]interface{}

// Severity indicates how serious a trip is.
type Severity int

const (
	// Stumble is a minor issue; the caller keeps going.
	// Example: one frame could not be written.
	Stumble Severity = iota

	// Error is a failure of the requested operation.
	Error

	// Fall means nothing further can run.
	// Example: the terminal could not be initialised.
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Error:
		return "error"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewTrip creates a trip with Error severity.
func NewTrip(kind, message string, context Context) *Trip {
	return &Trip{
		Kind:      kind,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
		Severity:  Error,
	}
}

// NewStumble creates a trip with Stumble severity.
func NewStumble(kind, message string, context Context) *Trip {
	return NewTrip(kind, message, context).WithSeverity(Stumble)
}

// NewFall creates a trip with Fall severity.
func NewFall(kind, message string, context Context) *Trip {
	return NewTrip(kind, message, context).WithSeverity(Fall)
}

// Wrap creates an Error trip around an underlying cause.
func Wrap(kind, message string, err error, context Context) *Trip {
	t := NewTrip(kind, message, context)
	t.Err = err
	return t
}

// WithSeverity sets the severity level for this trip.
func (t *Trip) WithSeverity(severity Severity) *Trip {
	t.Severity = severity
	return t
}

// Error implements the error interface.
func (t *Trip) Error() string {
	if t.Err != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", t.Kind, t.Severity, t.Message, t.Err)
	}
	return fmt.Sprintf("[%s:%s] %s", t.Kind, t.Severity, t.Message)
}

// Unwrap returns the underlying cause so errors.Is and errors.As see through trips.
func (t *Trip) Unwrap() error {
	return t.Err
}

// CanRecover returns true if work can continue despite this trip.
func (t *Trip) CanRecover() bool {
	return t.Severity == Stumble
}

// IsFall returns true if this trip should stop everything.
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// DetailedString returns the error with its timestamp and sorted context.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(t.Error())
	details.WriteString(fmt.Sprintf("\n  Time: %s", t.Timestamp.Format("15:04:05.000")))

	if len(t.Context) > 0 {
		keys := make([]string, 0, len(t.Context))
		for key := range t.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		details.WriteString("\n  Context:")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, t.Context[key]))
		}
	}

	return details.String()
}

// Handler collects trips raised by one component.
type Handler struct {
	component string
	trips     []*Trip
	stumbles  []*Trip
}

// NewHandler creates a handler for a component, e.g. "recorder".
func NewHandler(component string) *Handler {
	return &Handler{component: component}
}

// Record adds a trip to the handler's collection.
func (h *Handler) Record(t *Trip) {
	if t.Severity == Stumble {
		h.stumbles = append(h.stumbles, t)
	} else {
		h.trips = append(h.trips, t)
	}
}

// HasTrips returns true if any non-stumble trips have been recorded.
func (h *Handler) HasTrips() bool {
	return len(h.trips) > 0
}

// HasStumbles returns true if any stumbles have been recorded.
func (h *Handler) HasStumbles() bool {
	return len(h.stumbles) > 0
}

// Trips returns all recorded non-stumble trips.
func (h *Handler) Trips() []*Trip {
	return h.trips
}

// Stumbles returns all recorded stumbles.
func (h *Handler) Stumbles() []*Trip {
	return h.stumbles
}

// Summary provides a one-line overview.
func (h *Handler) Summary() string {
	if len(h.trips) == 0 && len(h.stumbles) == 0 {
		return fmt.Sprintf("[%s] No issues", h.component)
	}
	return fmt.Sprintf("[%s] %d trips, %d stumbles", h.component, len(h.trips), len(h.stumbles))
}

// DetailedReport lists every trip and stumble.
func (h *Handler) DetailedReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Report ===\n", h.component))
	report.WriteString(h.Summary() + "\n")

	if len(h.trips) > 0 {
		report.WriteString("\nTrips:\n")
		for i, t := range h.trips {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, t.DetailedString()))
		}
	}

	if len(h.stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, s := range h.stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, s.DetailedString()))
		}
	}

	return report.String()
}
