package netutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/webperf/bmproxy/internal/sentinel"
)

// ErrPortLocked is returned by LockPort when another process already holds
// the lock for the requested control port.
const ErrPortLocked = sentinel.Error("control port locked by another process")

// PortLock is an exclusive cross-process claim on a control port, backed by
// a file lock under the system temp directory. It complements the TCP probe
// precondition: the probe catches ports that are already listening, the
// lock catches the window where another supervisor has claimed the port but
// its proxy has not bound yet.
type PortLock struct {
	fl  *flock.Flock
	log *slog.Logger
}

// lockPath returns the lock file path for a control port. The file lives in
// the system temp directory so independent processes agree on its location.
func lockPath(port int) string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("bmproxy-port-%d.lock", port))
}

// LockPort claims the control port. Returns ErrPortLocked (wrapped) when the
// lock is held elsewhere; other errors indicate the lock file itself could
// not be created or locked. If logger is nil, slog.Default() is used.
func LockPort(port int, logger *slog.Logger) (*PortLock, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fl := flock.New(lockPath(port))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("port %d: %w", port, ErrPortLocked)
	}
	return &PortLock{fl: fl, log: logger}, nil
}

// Release drops the claim. The lock file is intentionally left on disk;
// removing it would race another process that has already opened it.
// Safe to call on a nil PortLock and safe to call more than once.
func (l *PortLock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	// Close unlocks and releases the descriptor in one step.
	if err := l.fl.Close(); err != nil {
		l.log.Debug("release port lock", "path", l.fl.Path(), "error", err)
	}
	l.fl = nil
}
