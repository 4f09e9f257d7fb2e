package bmproxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/webperf/bmproxy/internal/netutil"
	"github.com/webperf/bmproxy/internal/platform"
	"github.com/webperf/bmproxy/internal/process"
)

// procName is the name used in logs and error messages for the supervised
// process.
const procName = "browsermob-proxy"

// Server launches and supervises a local BrowserMob Proxy process. It
// embeds the RemoteServer surface (URL, IsListening, CreateProxy) for the
// proxy it manages.
//
// A Server is not safe for concurrent use; callers must serialize Start,
// Stop, and Close. The lifecycle is Unstarted → Starting → Running →
// Stopped: a failed Start tears the child down before returning, and a
// stopped Server cannot be started again.
type Server struct {
	RemoteServer

	path           string // resolved executable path, after platform adaptation
	proxyPortRange string
	plat           platform.Platform
	log            *slog.Logger
	stopTimeout    time.Duration
	stopped        bool

	// h owns the live resources; the runtime cleanup references h, never
	// the Server itself.
	h       *handle
	cleanup runtime.Cleanup
}

// handle owns the resources that must be released even when a Server is
// dropped without Stop or Close: the running process with its log file,
// and the control-port lock. It is the argument of the runtime cleanup
// registered in New, so it must never point back at the Server.
type handle struct {
	proc *process.Proc
	lock *netutil.PortLock
}

// reap is the cleanup body: best-effort stop, close, unlock. It must be
// safe against partially-initialized state, so every step is guarded and
// idempotent.
func (h *handle) reap(timeout time.Duration) {
	if h == nil {
		return
	}
	if h.proc != nil {
		if h.proc.IsStarted() {
			_ = h.proc.Stop(timeout)
		}
		h.proc.Close()
	}
	h.lock.Release()
	h.lock = nil
}

// New creates a Server for the proxy executable at path. An empty path
// means DefaultExecutable. The platform variant first adapts the path
// (".bat" suffix on Windows), then the path resolver must find it: either
// the path itself is an existing file, or some directory of the PATH list
// contains a file with that exact name. Resolution checks existence only,
// not executability; it is a precondition for a successful Start.
//
// Returns ErrExecutableNotFound (wrapped with the adapted path) when
// resolution fails.
//
// New registers a best-effort runtime cleanup that stops the process and
// closes the log file if the Server is garbage collected while running.
// Do not rely on it: call Stop (or Close) deterministically.
func New(path string, opts ...Option) (*Server, error) {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if path == "" {
		path = DefaultExecutable
	}
	if cfg.Logger == nil {
		cfg.Logger = pkgLogger()
	}

	path = cfg.Platform.ExecutableName(path)
	pathList := os.Getenv("PATH")
	if cfg.PathList != nil {
		pathList = *cfg.PathList
	}
	if !cfg.Resolver(path, pathList, cfg.Platform.PathListSeparator()) {
		return nil, fmt.Errorf("%w in path provided: %s", ErrExecutableNotFound, path)
	}

	s := &Server{
		RemoteServer:   RemoteServer{host: cfg.Host, port: cfg.Port},
		path:           path,
		proxyPortRange: cfg.ProxyPortRange,
		plat:           cfg.Platform,
		log:            cfg.Logger,
		stopTimeout:    cfg.StopTimeout,
		h:              &handle{proc: process.New(procName, cfg.Logger, cfg.StopTimeout)},
	}
	timeout := cfg.StopTimeout
	s.cleanup = runtime.AddCleanup(s, func(h *handle) { h.reap(timeout) }, s.h)
	return s, nil
}

// Path returns the executable path the Server will launch, after platform
// adaptation.
func (s *Server) Path() string { return s.path }

// IsRunning reports whether the proxy process has been started and not yet
// stopped.
func (s *Server) IsRunning() bool { return s.h.proc.IsStarted() }

// Start launches the proxy and blocks until its control port accepts TCP
// connections. The readiness loop probes every retry-sleep interval, up to
// retry-count times; the child's stdout and stderr are redirected to the
// (truncated) log file.
//
// Failure modes, all with the process torn down before Start returns:
//   - ErrServerStopped: the Server was stopped earlier.
//   - ErrAlreadyStarted: the process is already running.
//   - ErrPortInUse: something listens on the control port before spawn, or
//     another supervisor process holds the claim on it.
//   - ErrProcessExited: the child exited during startup; the message
//     references the log file path.
//   - ErrStartTimeout: the retry budget (count × sleep) elapsed without the
//     port becoming ready. A hung child that never binds is caught here,
//     not by exit detection.
//
// Canceling ctx aborts the readiness wait early and also tears the child
// down (ctx is wired into the spawned command).
func (s *Server) Start(ctx context.Context, opts ...StartOption) error {
	cfg := startConfig{
		LogFile:    DefaultLogFileName,
		RetrySleep: DefaultRetrySleep,
		RetryCount: DefaultRetryCount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.LogDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve log directory: %w", err)
		}
		cfg.LogDir = wd
	}

	if s.stopped {
		return ErrServerStopped
	}
	if s.h.proc.IsStarted() {
		return ErrAlreadyStarted
	}
	if s.IsListening() {
		return fmt.Errorf("%w: %d", ErrPortInUse, s.port)
	}

	lock, err := netutil.LockPort(s.port, s.log)
	if err != nil {
		if errors.Is(err, netutil.ErrPortLocked) {
			return fmt.Errorf("%w: %v", ErrPortInUse, err)
		}
		return fmt.Errorf("claim control port %d: %w", s.port, err)
	}
	s.h.lock = lock

	name, args := s.plat.WrapCommand(s.path, []string{
		fmt.Sprintf("--port=%d", s.port),
		"--proxyPortRange=" + s.proxyPortRange,
	})
	cmd := exec.CommandContext(ctx, name, args...)
	if err := s.h.proc.Launch(cmd, cfg.LogDir, cfg.LogFile); err != nil {
		s.releaseLock()
		return fmt.Errorf("launch proxy: %w", err)
	}
	s.log.Info("proxy starting",
		"port", s.port, "proxyPortRange", s.proxyPortRange, "log", s.h.proc.LogPath())

	err = process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      cfg.RetrySleep,
		Timeout:       time.Duration(cfg.RetryCount) * cfg.RetrySleep,
		Name:          procName,
		Port:          s.port,
		Logger:        s.log,
		ProcessExited: s.h.proc.Exited(),
	}, func(_ context.Context, _ int) (bool, error) {
		return s.IsListening(), nil
	})
	if err == nil {
		s.log.Info("proxy ready", "port", s.port)
		return nil
	}

	logPath := s.h.proc.LogPath()
	if stopErr := s.teardown(s.stopTimeout); stopErr != nil {
		s.log.Warn("teardown after failed start", "error", stopErr)
	}
	switch {
	case errors.Is(err, process.ErrProcessExited):
		return fmt.Errorf("proxy process failed to start, check %s for a helpful error message: %w",
			logPath, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("start proxy: %w", err)
	default:
		return fmt.Errorf("%w after %d attempts: %v", ErrStartTimeout, cfg.RetryCount, err)
	}
}

// Stop terminates the proxy process and its whole process group, closes and
// clears the log file handle, and releases the control-port claim.
//
// Idempotent: Stop on a Server that was never started, or that has already
// been stopped, returns nil without error. A zero or negative timeout falls
// back to DefaultStopTimeout. After a Stop of a running proxy there is no
// way back to Running; construct a new Server instead.
func (s *Server) Stop(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultStopTimeout
	}
	if !s.h.proc.IsStarted() {
		// Nothing tracked; drop any leftover claim from a failed start.
		s.releaseLock()
		return nil
	}
	s.stopped = true
	err := s.teardown(timeout)
	s.cleanup.Stop()
	return err
}

// Close releases all resources held by the Server. If the process is still
// running, Close stops it first using the configured stop timeout (the
// process package logs a warning; callers should prefer an explicit Stop).
// Safe to call multiple times and safe to combine with Stop in either
// order.
func (s *Server) Close() {
	if s.h.proc.IsStarted() {
		s.stopped = true
	}
	s.h.proc.Close()
	s.releaseLock()
	s.cleanup.Stop()
}

// teardown stops the process, closes the log file, and releases the port
// claim. After Stop the auto-stop path in proc.Close is inert, so Close
// only closes the log file here. The runtime cleanup stays registered: the
// failed-start path reaches here too, and the Server remains live then.
func (s *Server) teardown(timeout time.Duration) error {
	err := s.h.proc.Stop(timeout)
	s.h.proc.Close()
	s.releaseLock()
	return err
}

// releaseLock drops the control-port claim, if any. Idempotent.
func (s *Server) releaseLock() {
	s.h.lock.Release()
	s.h.lock = nil
}
