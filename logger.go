package tinydi

import (
	"log/slog"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// SetDefaultLogger replaces the logger used for advisory warnings and
// teardown failures. A nil logger restores slog.Default().
func SetDefaultLogger(l *slog.Logger) {
	if l == nil {
		defaultLogger.Store(nil)
		return
	}

	defaultLogger.Store(l)
}

func logger() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}

	return slog.Default()
}
