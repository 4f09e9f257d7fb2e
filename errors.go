package bmproxy

import (
	"github.com/webperf/bmproxy/internal/process"
	"github.com/webperf/bmproxy/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is. The original
// BrowserMob tooling reported every failure as one opaque server error;
// here each condition gets its own sentinel so callers can branch on the
// cause, and all of them are immutable constants safe for use in wrapped
// error chain comparison.
const (
	// ErrExecutableNotFound is returned by New when the proxy executable
	// is neither an existing file nor present in any PATH-list directory.
	ErrExecutableNotFound = sentinel.Error("proxy executable not found")

	// ErrPortInUse is returned by Start when something already listens on
	// the control port, or when another supervisor process holds the
	// cross-process lock for it.
	ErrPortInUse = sentinel.Error("port already in use")

	// ErrStartTimeout is returned by Start when the retry budget is
	// exhausted without the control port accepting connections. The
	// process has already been torn down when Start returns this.
	ErrStartTimeout = sentinel.Error("can't connect to proxy")

	// ErrServerStopped is returned by Start on a Server that has been
	// stopped. There is no transition out of the stopped state; construct
	// a new Server instead.
	ErrServerStopped = sentinel.Error("server already stopped")

	// ErrAlreadyStarted is returned by Start when the proxy process is
	// already running.
	ErrAlreadyStarted = process.ErrAlreadyStarted

	// ErrProxyNotOpen is returned by Client methods that require a
	// dedicated proxy port before Open has been called.
	ErrProxyNotOpen = sentinel.Error("proxy not opened")

	// ErrProxyClosed is returned by Client methods called after Close.
	ErrProxyClosed = sentinel.Error("proxy already closed")
)

// ErrProcessExited is returned (wrapped, referencing the log file path) by
// Start when the child process exits before the control port becomes ready.
var ErrProcessExited = process.ErrProcessExited
