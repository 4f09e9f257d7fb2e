package process

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/webperf/bmproxy/internal/fileutil"
)

// LogFile is the combined stdout/stderr log of a supervised process.
// The file is truncated on open; one LogFile is owned by exactly one Proc
// and is never shared between instances.
type LogFile struct {
	f    *os.File
	dir  string
	name string
}

// OpenLogFile creates (truncating) the log file at dir/name, creating the
// directory first when it does not exist yet.
func OpenLogFile(dir, name string) (LogFile, error) {
	l := LogFile{dir: dir, name: name}
	if err := fileutil.EnsureDir(dir); err != nil {
		return LogFile{}, err
	}
	f, err := os.Create(l.Path())
	if err != nil {
		return LogFile{}, fmt.Errorf("create log file: %w", err)
	}
	l.f = f
	return l, nil
}

// Path returns the full path to the log file. Path is valid even before the
// file is created, so error messages can reference it.
func (l *LogFile) Path() string {
	return filepath.Join(l.dir, l.name)
}

// File returns the underlying handle for stdout/stderr redirection.
// Returns nil if the file was never opened or has been closed.
func (l *LogFile) File() *os.File {
	return l.f
}

// Close closes the handle and nils it to prevent double-close.
func (l *LogFile) Close() {
	if l.f != nil {
		_ = l.f.Close()
		l.f = nil
	}
}
