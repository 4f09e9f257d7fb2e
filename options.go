package bmproxy

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/webperf/bmproxy/internal/exepath"
	"github.com/webperf/bmproxy/internal/platform"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("bmproxy: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("bmproxy: %s must not be empty", name))
	}
}

// serverConfig holds configuration for a Server. Immutable after New.
type serverConfig struct {
	Host           string
	Port           int
	ProxyPortRange string
	Platform       platform.Platform
	Resolver       exepath.Resolver
	PathList       *string // nil means read $PATH at construction
	Logger         *slog.Logger
	StopTimeout    time.Duration
}

// defaultServerConfig returns the configuration New starts from before
// applying options.
func defaultServerConfig() serverConfig {
	return serverConfig{
		Host:           DefaultHost,
		Port:           DefaultPort,
		ProxyPortRange: DefaultProxyPortRange,
		Platform:       platform.Current(),
		Resolver:       exepath.FileExists,
		StopTimeout:    DefaultStopTimeout,
	}
}

// Option configures a Server during construction via New.
//
// Several With* functions panic on invalid input (empty strings,
// non-positive values). These panics are intentional: option values are
// typically compile-time constants, so an invalid value indicates a
// programmer error rather than a runtime condition — fail fast during
// initialization instead of returning errors that would be universally
// fatal anyway.
type Option func(*serverConfig)

// WithHost sets the host of the proxy control API.
// Default: "localhost". Panics if host is empty.
func WithHost(host string) Option {
	requireNonEmpty("host", host)
	return func(c *serverConfig) {
		c.Host = host
	}
}

// WithPort sets the control port the proxy listens on.
// Default: 8080. Panics if port <= 0.
func WithPort(port int) Option {
	requirePositive("port", port)
	return func(c *serverConfig) {
		c.Port = port
	}
}

// WithProxyPortRange sets the "min-max" range the proxy allocates dedicated
// per-client ports from. The range is passed through to the proxy binary
// unvalidated; the proxy itself rejects malformed ranges.
// Default: "8081-8581". Panics if r is empty.
func WithProxyPortRange(r string) Option {
	requireNonEmpty("proxy port range", r)
	return func(c *serverConfig) {
		c.ProxyPortRange = r
	}
}

// WithPlatform injects the platform variant used for executable naming,
// PATH-list splitting, and command wrapping. The default is the variant for
// the running operating system; tests use this to exercise foreign
// branches. Panics if p is nil.
func WithPlatform(p platform.Platform) Option {
	if p == nil {
		panic("bmproxy: platform must not be nil")
	}
	return func(c *serverConfig) {
		c.Platform = p
	}
}

// WithPathResolver injects the strategy New uses to check that the proxy
// executable exists. The default checks the real filesystem and $PATH;
// tests substitute fakes instead of mutating the process environment.
// Panics if r is nil.
func WithPathResolver(r exepath.Resolver) Option {
	if r == nil {
		panic("bmproxy: path resolver must not be nil")
	}
	return func(c *serverConfig) {
		c.Resolver = r
	}
}

// WithPathList overrides the PATH-style directory list searched for the
// executable. The default reads the PATH environment variable once, at
// construction.
func WithPathList(pathList string) Option {
	return func(c *serverConfig) {
		c.PathList = &pathList
	}
}

// WithLogger sets the logger for this Server. The default is the package
// logger (see SetLogger). Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("bmproxy: logger must not be nil")
	}
	return func(c *serverConfig) {
		c.Logger = l
	}
}

// WithStopTimeout sets the timeout used when the process is stopped
// implicitly: by Close's auto-stop, by the finalizer safety net, and by
// Start's teardown after a failed startup.
// Default: 10 seconds. Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *serverConfig) {
		c.StopTimeout = d
	}
}

// startConfig holds per-call options for Start. Transient.
type startConfig struct {
	LogDir     string
	LogFile    string
	RetrySleep time.Duration
	RetryCount int
}

// StartOption configures a single Start call.
type StartOption func(*startConfig)

// WithLogDir sets the directory the log file is created in.
// Default: the current working directory. Panics if dir is empty.
func WithLogDir(dir string) StartOption {
	requireNonEmpty("log directory", dir)
	return func(c *startConfig) {
		c.LogDir = dir
	}
}

// WithLogFile sets the log file name.
// Default: "server.log". Panics if name is empty.
func WithLogFile(name string) StartOption {
	requireNonEmpty("log file name", name)
	return func(c *startConfig) {
		c.LogFile = name
	}
}

// WithRetrySleep sets the pause between readiness probes during Start.
// Default: 500ms. Panics if d <= 0.
func WithRetrySleep(d time.Duration) StartOption {
	requirePositive("retry sleep", d)
	return func(c *startConfig) {
		c.RetrySleep = d
	}
}

// WithRetryCount sets the number of readiness probes before Start gives up.
// The total startup budget is retry count times retry sleep.
// Default: 60. Panics if n <= 0.
func WithRetryCount(n int) StartOption {
	requirePositive("retry count", n)
	return func(c *startConfig) {
		c.RetryCount = n
	}
}
