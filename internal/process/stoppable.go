package process

import (
	"time"
)

// Stoppable represents a process that can be stopped and have its resources closed.
type Stoppable interface {
	Stop(timeout time.Duration) error
	Close()
}

// StopCloseAndNil stops, closes, and nils a Stoppable pointer in a single
// cleanup step. It is safe to call with a nil p or when *p is nil; in both
// cases it returns nil immediately.
//
// P is constrained to both *E and Stoppable, so only pointer types that
// implement Stoppable can be passed; *E is always directly comparable to
// nil without reflection. Callers never specify E explicitly.
//
// Close and nil-out always run even when Stop returns an error: a failed
// Stop means the process is in an unknown state, but file handles must
// still be closed and stale references cleared. The Stop error is still
// returned to the caller.
//
// Usage:
//
//	var proc *process.Proc
//	// ... launch proc ...
//	err := process.StopCloseAndNil(&proc, 10*time.Second)
//
// After the call, proc is nil regardless of whether Stop succeeded.
func StopCloseAndNil[P interface {
	*E
	Stoppable
}, E any](p *P, timeout time.Duration) error {
	if p == nil || *p == nil {
		return nil
	}
	defer func() {
		(*p).Close()
		*p = nil
	}()
	return (*p).Stop(timeout)
}
