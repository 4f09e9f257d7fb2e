// Package fileutil provides small file operation helpers.
//
// EnsureDir creates directories recursively, and WriteFileAtomic writes a
// file via temp-file-then-rename so concurrent readers never observe a
// partial file. These are used for preparing proxy log directories and for
// exporting HAR captures to disk.
package fileutil
