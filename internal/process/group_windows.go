//go:build windows

package process

import (
	"log/slog"

	"golang.org/x/sys/windows"
)

// interruptGroup sends a ctrl-break event to the console process group,
// cleaning up any children the proxy itself spawned. Errors are swallowed:
// the main process has already been terminated when the sweep runs, and a
// missing group or console is expected then.
func interruptGroup(groupID int, log *slog.Logger) {
	if groupID <= 0 {
		return
	}
	if err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(groupID)); err != nil {
		log.Debug("interrupt process group", "pgid", groupID, "error", err)
	}
}
