package bmproxy

import "time"

// ServerConfigSnapshot holds a copy of serverConfig fields for test
// assertions. Exported only via export_test.go so that the _test package
// can verify option closures actually mutate the config without accessing
// internals.
type ServerConfigSnapshot struct {
	Host           string
	Port           int
	ProxyPortRange string
	PlatformName   string
	HasPathList    bool
	PathList       string
	StopTimeout    time.Duration
}

// ApplyOptionsForTesting creates a default serverConfig, applies the given
// options, and returns a snapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ServerConfigSnapshot {
	cfg := defaultServerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	snap := ServerConfigSnapshot{
		Host:           cfg.Host,
		Port:           cfg.Port,
		ProxyPortRange: cfg.ProxyPortRange,
		PlatformName:   cfg.Platform.Name(),
		StopTimeout:    cfg.StopTimeout,
	}
	if cfg.PathList != nil {
		snap.HasPathList = true
		snap.PathList = *cfg.PathList
	}
	return snap
}

// StartConfigSnapshot holds a copy of startConfig fields for test assertions.
type StartConfigSnapshot struct {
	LogDir     string
	LogFile    string
	RetrySleep time.Duration
	RetryCount int
}

// ApplyStartOptionsForTesting applies StartOptions to the same defaults
// Start uses (with the log directory left empty, as before the cwd
// fallback) and returns a snapshot.
func ApplyStartOptionsForTesting(opts ...StartOption) StartConfigSnapshot {
	cfg := startConfig{
		LogFile:    DefaultLogFileName,
		RetrySleep: DefaultRetrySleep,
		RetryCount: DefaultRetryCount,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return StartConfigSnapshot{
		LogDir:     cfg.LogDir,
		LogFile:    cfg.LogFile,
		RetrySleep: cfg.RetrySleep,
		RetryCount: cfg.RetryCount,
	}
}
