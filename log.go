package bmproxy

import (
	"log/slog"
	"sync/atomic"
)

// logger is the package-level logger, stored as an atomic pointer to allow
// safe concurrent reads and writes. Named "logger" instead of "log" to
// avoid shadowing the stdlib "log" package.
//
// A nil value means no custom logger has been set; pkgLogger() falls back
// to a cached default derived from slog.Default().
var logger atomic.Pointer[slog.Logger]

// defaultLogger caches the default-derived logger (slog.Default() with the
// bmproxy component attribute) so it is not re-created on every call. The
// tradeoff is that slog.SetDefault() calls after the first use are not
// picked up until SetLogger(nil) clears the cache.
var defaultLogger atomic.Pointer[slog.Logger]

// pkgLogger returns the current package-level logger. Safe to call from
// multiple goroutines.
func pkgLogger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	l := newDefaultLogger()
	// CompareAndSwap avoids overwriting a concurrently cached value; if
	// another goroutine already stored a logger, use theirs.
	if defaultLogger.CompareAndSwap(nil, l) {
		return l
	}
	if l2 := defaultLogger.Load(); l2 != nil {
		return l2
	}
	return l
}

// newDefaultLogger creates the default logger with the bmproxy component attribute.
func newDefaultLogger() *slog.Logger {
	return slog.Default().With("component", "bmproxy")
}

// SetLogger replaces the package-level logger used by bmproxy, integrating
// its output with the application's logging infrastructure. The provided
// logger should already carry any desired attributes; bmproxy adds none.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other bmproxy operations.
// Servers capture the logger at construction, so call SetLogger before New
// for it to take effect on a given Server.
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	// Clear the cached default so the next use re-derives it from
	// slog.Default().
	defaultLogger.Store(nil)
}
