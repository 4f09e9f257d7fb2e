//go:build unix

package process

import (
	"errors"
	"log/slog"
	"syscall"
)

// interruptGroup sends SIGINT to the whole process group, cleaning up any
// children the proxy itself spawned. Errors are swallowed: by the time the
// group sweep runs the main process has already been terminated, so cleanup
// is best-effort. ESRCH (no such group) is the common case when the group
// died with its leader and is not even logged.
func interruptGroup(groupID int, log *slog.Logger) {
	if groupID <= 0 {
		return
	}
	if err := syscall.Kill(-groupID, syscall.SIGINT); err != nil && !errors.Is(err, syscall.ESRCH) {
		log.Debug("interrupt process group", "pgid", groupID, "error", err)
	}
}
