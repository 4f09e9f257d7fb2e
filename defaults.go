package bmproxy

import "time"

// Default configuration values for New and Start.
// These constants are exported so callers can reference the defaults when
// building custom configurations relative to them (e.g., 2 * DefaultRetryCount).
const (
	// DefaultExecutable is the executable name used to locate the proxy
	// when New is called with an empty path. On Windows the platform
	// layer appends the ".bat" suffix.
	DefaultExecutable = "browsermob-proxy"

	// DefaultHost is the host the proxy control API binds to.
	DefaultHost = "localhost"

	// DefaultPort is the control port of the proxy.
	DefaultPort = 8080

	// DefaultProxyPortRange is the port range the proxy allocates
	// dedicated per-client ports from, in "min-max" form.
	DefaultProxyPortRange = "8081-8581"

	// DefaultLogFileName is the log file name used by Start when none is
	// configured. The file is created in the log directory (by default
	// the current working directory) and truncated on every Start.
	DefaultLogFileName = "server.log"

	// DefaultRetrySleep is the pause between consecutive readiness probes
	// of the control port during Start.
	DefaultRetrySleep = 500 * time.Millisecond

	// DefaultRetryCount is the number of readiness probes Start attempts
	// before giving up. The total startup budget is
	// DefaultRetryCount * DefaultRetrySleep (30 seconds).
	DefaultRetryCount = 60

	// DefaultStopTimeout is the maximum time Stop waits for the proxy
	// process to exit gracefully before escalating.
	DefaultStopTimeout = 10 * time.Second
)
