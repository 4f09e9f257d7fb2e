package platform

import (
	"runtime"
	"strings"
)

// Platform describes the host-specific launch conventions for the proxy
// binary. Implementations must be stateless; the same value may be shared
// by any number of servers.
type Platform interface {
	// Name returns the variant name ("posix", "windows", or "darwin").
	Name() string

	// PathListSeparator returns the separator used between entries of a
	// PATH-style environment variable.
	PathListSeparator() string

	// ExecutableName adapts a bare executable path to the platform's
	// naming convention (e.g., the ".bat" suffix on Windows).
	ExecutableName(path string) string

	// WrapCommand returns the actual program and argument list to launch
	// for the given executable path and arguments. Darwin wraps the
	// invocation in a shell; other platforms invoke the path directly.
	WrapCommand(path string, args []string) (string, []string)
}

// Compile-time interface satisfaction checks.
var (
	_ Platform = posix{}
	_ Platform = windows{}
	_ Platform = darwin{}
)

type posix struct{}

func (posix) Name() string                 { return "posix" }
func (posix) PathListSeparator() string    { return ":" }
func (posix) ExecutableName(p string) string { return p }
func (posix) WrapCommand(path string, args []string) (string, []string) {
	return path, args
}

type windows struct{}

func (windows) Name() string              { return "windows" }
func (windows) PathListSeparator() string { return ";" }

// ExecutableName appends the ".bat" suffix when absent. BrowserMob Proxy
// ships as a batch file on Windows.
func (windows) ExecutableName(p string) string {
	if strings.HasSuffix(p, ".bat") {
		return p
	}
	return p + ".bat"
}

func (windows) WrapCommand(path string, args []string) (string, []string) {
	return path, args
}

type darwin struct{}

func (darwin) Name() string                 { return "darwin" }
func (darwin) PathListSeparator() string    { return ":" }
func (darwin) ExecutableName(p string) string { return p }

// WrapCommand runs the launch script through sh. The distributed start
// script is not reliably executable after unpacking on macOS.
func (darwin) WrapCommand(path string, args []string) (string, []string) {
	return "sh", append([]string{path}, args...)
}

// POSIX returns the generic Unix variant.
func POSIX() Platform { return posix{} }

// Windows returns the Windows variant.
func Windows() Platform { return windows{} }

// Darwin returns the macOS variant.
func Darwin() Platform { return darwin{} }

// Current returns the variant for the running operating system.
func Current() Platform {
	switch runtime.GOOS {
	case "windows":
		return windows{}
	case "darwin":
		return darwin{}
	default:
		return posix{}
	}
}
