// Package exepath resolves the proxy executable before launch.
//
// Resolution only checks for existence, not executability: the path must be
// an existing regular file, or some directory of the PATH-style list must
// contain a file with that exact name. The resolver is an injectable
// strategy so tests can substitute fake directory layouts instead of
// mutating the real process environment.
package exepath
