package matrixrain

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
	logOutput io.Writer
	logLevel  *logrus.Level
)

// NewLogger returns the logger for a component, creating it on first use.
//
// Level comes from SetLevel if it was called, otherwise from
// MATRIXRAIN_LOG_LEVEL (default "info"), and
// MATRIXRAIN_LOG_FORMAT=json switches to JSON lines. Output defaults to stderr
// only when stderr is not an interactive terminal, because the rain owns the
// screen; use SetOutput to send logs somewhere else.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := logrus.New()

	if logLevel != nil {
		logger.SetLevel(*logLevel)
	} else {
		level, err := logrus.ParseLevel(os.Getenv("MATRIXRAIN_LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)
	}

	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

	if os.Getenv("MATRIXRAIN_LOG_FORMAT") == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: !interactive,
		})
	}

	switch {
	case logOutput != nil:
		logger.SetOutput(logOutput)
	case interactive:
		logger.SetOutput(io.Discard)
	default:
		logger.SetOutput(os.Stderr)
	}

	entry := logger.WithField("component", component)
	loggers[component] = entry
	return entry
}

// SetOutput redirects every component logger, existing and future, to w.
func SetOutput(w io.Writer) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	logOutput = w
	for _, entry := range loggers {
		entry.Logger.SetOutput(w)
	}
}

// SetLevel changes the level of every component logger, existing and future.
func SetLevel(level logrus.Level) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	logLevel = &level
	for _, entry := range loggers {
		entry.Logger.SetLevel(level)
	}
}

// discardLogger is used by components that were not given a logger.
func discardLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
