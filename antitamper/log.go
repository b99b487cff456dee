package antitamper

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

func init() {
	// Silent unless the host application opts in.
	SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// SetLogger replaces the logger used to report which check fired.
// A nil logger is ignored.
func SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	defaultLogger.Store(l)
}

// Log returns the package logger.
func Log() *slog.Logger {
	return defaultLogger.Load()
}
