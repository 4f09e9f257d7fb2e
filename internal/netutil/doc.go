// Package netutil provides the network primitives behind proxy supervision:
// IsListening, the TCP connect probe used both as a start precondition and
// as the readiness signal during startup, and PortLock, a cross-process
// file lock that keeps two supervisors in different processes from racing
// the same control port.
package netutil
