// Package process manages the external proxy process lifecycle.
//
// It defines Proc for launch/stop behavior with a single redirected log
// file, the Stoppable interface, StopCloseAndNil for atomic cleanup,
// WaitReady for polling-based readiness checks, and LogFile for the
// combined stdout/stderr log of the supervised process.
package process
