//go:build unix && !linux

package process

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr makes the child a session and process-group leader
// so Stop can signal the whole group. Pdeathsig (parent-death signal) is a
// Linux-only kernel feature and is not set here.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
