package exepath

import (
	"os"
	"path/filepath"
	"strings"
)

// Resolver reports whether the named executable can be found, either as a
// file path or inside one of the directories of pathList. listSep is the
// separator between pathList entries (":" or ";" depending on platform).
type Resolver func(path, pathList, listSep string) bool

// FileExists is the default Resolver. It checks the path itself first, then
// each directory of pathList. Empty pathList entries are skipped rather than
// treated as the current directory.
func FileExists(path, pathList, listSep string) bool {
	if isFile(path) {
		return true
	}
	for dir := range strings.SplitSeq(pathList, listSep) {
		if dir == "" {
			continue
		}
		if isFile(filepath.Join(dir, path)) {
			return true
		}
	}
	return false
}

// isFile reports whether path exists and is a regular file. Directories and
// stat errors of any kind report false.
func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
