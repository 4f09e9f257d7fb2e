//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr sets Linux-specific process attributes on cmd.
// Setsid makes the child a session and process-group leader so Stop can
// signal the whole group. Pdeathsig ensures the child receives SIGTERM when
// its parent dies, preventing orphaned proxy processes if the supervising
// program is killed abruptly.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:    true,
		Pdeathsig: syscall.SIGTERM,
	}
}
