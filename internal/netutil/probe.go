package netutil

import (
	"net"
	"strconv"
	"time"
)

// DefaultProbeTimeout is the per-attempt timeout for the TCP connect probe.
// 1 second is generous for a localhost connection; attempts that fail
// because nothing is listening return immediately with connection refused,
// so this timeout only guards against pathological cases (e.g., SYN sent
// but no SYN-ACK).
const DefaultProbeTimeout = time.Second

// IsListening reports whether a TCP connection to host:port succeeds within
// the given timeout. It never returns an error; connection failures of any
// kind report false. A zero or negative timeout falls back to
// DefaultProbeTimeout.
func IsListening(host string, port int, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close() // best-effort close of the probe connection
	return true
}
