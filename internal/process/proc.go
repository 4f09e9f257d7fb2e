package process

import (
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/webperf/bmproxy/internal/sentinel"
)

// ErrAlreadyStarted is returned when Launch is called on a process that is
// already running. Callers must Stop the process before starting it again.
const ErrAlreadyStarted = sentinel.Error("process already started")

// ErrNilCmd is returned when Launch is called with a nil *exec.Cmd.
const ErrNilCmd = sentinel.Error("cmd must not be nil")

// ErrEmptyCmdPath is returned when Launch is called with an empty cmd.Path.
const ErrEmptyCmdPath = sentinel.Error("cmd.Path must not be empty")

// ErrEmptyLogDir is returned when Launch is called with an empty log directory.
const ErrEmptyLogDir = sentinel.Error("log directory must not be empty")

// ErrEmptyLogName is returned when Launch is called with an empty log file name.
const ErrEmptyLogName = sentinel.Error("log file name must not be empty")

// Proc supervises one external proxy process: it launches the command as a
// process-group leader with stdout and stderr redirected to a single log
// file, and tears the whole group down on Stop.
//
// Proc is not safe for concurrent use. Callers must serialize access to all
// methods, including Launch, Stop, Close, and IsStarted. In practice the
// owning Server is documented as single-caller and provides that serialization.
type Proc struct {
	cmd         *exec.Cmd
	waitDone    <-chan error    // receives cmd.Wait result; started once in Launch
	exited      <-chan struct{} // closed when process exits; readable by multiple goroutines
	groupID     int             // process group to sweep on Stop; 0 when not running
	logFile     LogFile
	name        string        // process name for logging and error messages
	log         *slog.Logger  // logger for operational messages
	stopTimeout time.Duration // timeout for auto-stop in Close; zero uses DefaultStopTimeout
}

// New creates a Proc with the given name, logger, and stop timeout. The
// stopTimeout is used by Close as a safety-net timeout when auto-stopping a
// process that was not explicitly stopped; zero falls back to
// DefaultStopTimeout. If logger is nil, slog.Default() is used. Panics if
// name is empty, since an empty name produces confusing error messages
// throughout the lifecycle.
func New(name string, logger *slog.Logger, stopTimeout time.Duration) *Proc {
	if name == "" {
		panic("bmproxy: process name must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Proc{name: name, log: logger, stopTimeout: stopTimeout}
}

// Launch sets up the log file, redirects both stdout and stderr of cmd to
// it, configures the command as a process-group/session leader, and starts
// it. The cmd must already have its Path and Args set.
//
// A single goroutine calling cmd.Wait is started here so that exactly one
// Wait call is made per process. The resulting channel is consumed by Stop;
// the broadcast exited channel lets readiness polling detect early exit.
//
// Returns ErrAlreadyStarted if the process is already running.
func (p *Proc) Launch(cmd *exec.Cmd, logDir, logName string) error {
	if cmd == nil {
		return ErrNilCmd
	}
	if cmd.Path == "" {
		return ErrEmptyCmdPath
	}
	if logDir == "" {
		return ErrEmptyLogDir
	}
	if logName == "" {
		return ErrEmptyLogName
	}
	if p.cmd != nil {
		return ErrAlreadyStarted
	}

	configureSysProcAttr(cmd)

	logFile, err := OpenLogFile(logDir, logName)
	if err != nil {
		return fmt.Errorf("create %s log: %w", p.name, err)
	}
	cmd.Stdout = logFile.File()
	cmd.Stderr = logFile.File()

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("start %s process: %w", p.name, err)
	}
	p.cmd = cmd
	p.logFile = logFile
	// With a new session/process group, the child's pid doubles as the
	// group id on Unix. On Windows the pid addresses the console group.
	p.groupID = cmd.Process.Pid

	// Start the single cmd.Wait goroutine. cmd.Wait must be called exactly
	// once per started process; a second call is undefined behavior.
	//
	// Two channels are created:
	//   - done (buffered 1): receives the Wait error, consumed once by Stop.
	//   - exited (closed on exit): broadcast signal readable by any number
	//     of goroutines (e.g., WaitReady polling) to detect early exit.
	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()
	p.waitDone = done
	p.exited = exited

	return nil
}

// Stop terminates the process and then sweeps its whole process group with
// an interrupt, cleaning up any children the proxy itself spawned. Group
// signal errors (e.g., the capability being unavailable on the platform)
// are swallowed; group cleanup is best-effort once termination has been
// requested.
//
// After Stop returns, IsStarted reports false regardless of whether the
// stop succeeded, because the process is no longer in a known-running
// state. Safe to call when cmd is nil or cmd.Process is nil (e.g., Launch
// was never called, or Stop already ran); returns nil immediately then.
func (p *Proc) Stop(timeout time.Duration) error {
	if p.cmd == nil || p.cmd.Process == nil {
		p.clear()
		return nil
	}
	pid := p.cmd.Process.Pid
	err := stopWithDone(p.cmd, p.waitDone, timeout, p.name)
	if err != nil {
		p.log.Warn("process stop failed; process may be orphaned",
			"process", p.name, "pid", pid, "error", err)
	}
	interruptGroup(p.groupID, p.log)
	p.clear()
	return err
}

// clear drops all references to the terminated process.
func (p *Proc) clear() {
	p.cmd = nil
	p.waitDone = nil
	p.exited = nil
	p.groupID = 0
}

// Close closes the log file handle. If the process is still running (Stop
// was not called first), Close logs a warning and stops it automatically to
// prevent resource leaks. Callers should always call Stop before Close; the
// auto-stop is a safety net, not an intended code path.
//
// Close is idempotent and safe to run against partially-initialized state,
// so it can be driven from a finalizer during teardown.
func (p *Proc) Close() {
	if p.cmd != nil {
		p.log.Warn("process.Close called without Stop; stopping automatically",
			"process", p.name)
		timeout := p.stopTimeout
		if timeout <= 0 {
			timeout = DefaultStopTimeout
		}
		if err := p.Stop(timeout); err != nil {
			p.log.Warn("auto-stop during Close failed",
				"process", p.name, "error", err)
		}
	}
	p.logFile.Close()
}

// Logger returns the logger used by this process.
func (p *Proc) Logger() *slog.Logger {
	return p.log
}

// Exited returns a channel that is closed when the process exits. It is
// safe to select on from any number of goroutines. Returns nil if the
// process has not been started or has already been stopped.
func (p *Proc) Exited() <-chan struct{} {
	return p.exited
}

// IsStarted reports whether the process has been launched and not yet stopped.
func (p *Proc) IsStarted() bool {
	return p.cmd != nil
}

// LogPath returns the path of the combined stdout/stderr log file. Valid
// after a successful Launch, including after Stop, so failure messages can
// point callers at the log.
func (p *Proc) LogPath() string {
	return p.logFile.Path()
}
