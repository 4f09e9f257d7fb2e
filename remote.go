package bmproxy

import (
	"fmt"

	"github.com/webperf/bmproxy/internal/netutil"
)

// RemoteServer models a proxy reachable at a known host and control port,
// whether or not this process launched it. Server embeds it; use
// NewRemoteServer directly when the proxy is managed elsewhere.
type RemoteServer struct {
	host string
	port int
}

// NewRemoteServer returns a handle on a proxy at host:port. No network I/O
// is performed; use IsListening to probe reachability.
func NewRemoteServer(host string, port int) *RemoteServer {
	return &RemoteServer{host: host, port: port}
}

// Host returns the configured host.
func (r *RemoteServer) Host() string { return r.host }

// Port returns the configured control port.
func (r *RemoteServer) Port() int { return r.port }

// URL returns the control API base URL, "http://{host}:{port}". This is the
// address of the proxy's REST API, not the address browser traffic should
// be pointed at (see Client.ProxyAddr for that).
func (r *RemoteServer) URL() string {
	return fmt.Sprintf("http://%s:%d", r.host, r.port)
}

// IsListening reports whether a TCP connection to the control port succeeds
// within one second. It never returns an error; connection failures of any
// kind report false.
func (r *RemoteServer) IsListening() bool {
	return netutil.IsListening(r.host, r.port, netutil.DefaultProbeTimeout)
}

// CreateProxy returns a Client bound to this server's control API with the
// given creation parameters (an open string-keyed map, e.g. "httpProxy",
// "httpsProxy", interpreted entirely by the proxy). params may be nil.
// No network I/O happens here; the dedicated proxy port is allocated by
// Client.Open.
func (r *RemoteServer) CreateProxy(params map[string]string) *Client {
	return newClient(r.host, r.port, params)
}
