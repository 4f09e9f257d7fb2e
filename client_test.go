package bmproxy_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/webperf/bmproxy"
)

// recordedRequest captures one control API call received by the fake proxy.
type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	JSON   map[string]string
}

// fakeControlAPI mimics the BrowserMob Proxy control API: it allocates port
// 9091 for the first created proxy and accepts every per-proxy endpoint,
// recording what it received.
type fakeControlAPI struct {
	t        *testing.T
	requests []recordedRequest
	har      string // JSON served on GET /proxy/{port}/har
	fail     bool   // answer every request with 500 when set
}

func (f *fakeControlAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
	}
	switch r.Header.Get("Content-Type") {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			f.t.Errorf("parse form %s: %v", r.URL.Path, err)
		}
		rec.Form = r.PostForm
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&rec.JSON); err != nil {
			f.t.Errorf("decode json %s: %v", r.URL.Path, err)
		}
	}
	f.requests = append(f.requests, rec)

	if f.fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("proxy exploded"))
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/proxy":
		_, _ = w.Write([]byte(`{"port": 9091}`))
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/har"):
		_, _ = w.Write([]byte(f.har))
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeControlAPI) last() recordedRequest {
	if len(f.requests) == 0 {
		f.t.Fatal("no request recorded")
	}
	return f.requests[len(f.requests)-1]
}

// newFakeProxy starts the fake control API and returns a RemoteServer bound
// to it.
func newFakeProxy(t *testing.T) (*fakeControlAPI, *bmproxy.RemoteServer) {
	t.Helper()

	api := &fakeControlAPI{t: t, har: `{"log":{"version":"1.2","entries":[]}}`}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(ts.URL, "http://"))
	if err != nil {
		t.Fatalf("split test server address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}
	return api, bmproxy.NewRemoteServer(host, port)
}

// openProxy creates and opens a Client against the fake control API.
func openProxy(t *testing.T, rs *bmproxy.RemoteServer, params map[string]string) *bmproxy.Client {
	t.Helper()

	c := rs.CreateProxy(params)
	if err := c.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return c
}

func TestClient_Open(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, map[string]string{"trustAllServers": "true"})

	if c.Port() != 9091 {
		t.Errorf("Port() = %d, want 9091", c.Port())
	}
	wantAddr := net.JoinHostPort(rs.Host(), "9091")
	if c.ProxyAddr() != wantAddr {
		t.Errorf("ProxyAddr() = %q, want %q", c.ProxyAddr(), wantAddr)
	}

	req := api.last()
	if req.Method != http.MethodPost || req.Path != "/proxy" {
		t.Errorf("Open sent %s %s, want POST /proxy", req.Method, req.Path)
	}
	if got := req.Query.Get("trustAllServers"); got != "true" {
		t.Errorf("creation parameter trustAllServers = %q, want %q", got, "true")
	}

	// A second Open without Close must be rejected.
	if err := c.Open(context.Background()); err == nil {
		t.Error("second Open should fail")
	}
}

func TestClient_BeforeOpen(t *testing.T) {
	t.Parallel()

	_, rs := newFakeProxy(t)
	c := rs.CreateProxy(nil)

	ctx := context.Background()
	calls := map[string]func() error{
		"NewHAR":      func() error { return c.NewHAR(ctx, bmproxy.HAROptions{}) },
		"NewPage":     func() error { return c.NewPage(ctx, "p2", "") },
		"SetHeaders":  func() error { return c.SetHeaders(ctx, map[string]string{"X-A": "1"}) },
		"AllowHosts":  func() error { return c.AllowHosts(ctx, []string{".*"}, 404) },
		"BlockHosts":  func() error { return c.BlockHosts(ctx, []string{".*"}, 404) },
		"SetLimits":   func() error { return c.SetLimits(ctx, bmproxy.Limits{DownstreamKbps: 100}) },
		"SetTimeouts": func() error { return c.SetTimeouts(ctx, bmproxy.Timeouts{Request: 5}) },
		"RemapHosts":  func() error { return c.RemapHosts(ctx, map[string]string{"a": "b"}) },
		"BasicAuth":   func() error { return c.BasicAuth(ctx, "example.com", "u", "p") },
		"HAR": func() error {
			_, err := c.HAR(ctx)
			return err
		},
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, bmproxy.ErrProxyNotOpen) {
			t.Errorf("%s before Open = %v, want ErrProxyNotOpen", name, err)
		}
	}
	if c.ProxyAddr() != "" {
		t.Errorf("ProxyAddr() before Open = %q, want empty", c.ProxyAddr())
	}
}

func TestClient_NewHAR(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)

	err := c.NewHAR(context.Background(), bmproxy.HAROptions{
		CaptureHeaders: true,
		CaptureContent: true,
		InitialPageRef: "login",
	})
	if err != nil {
		t.Fatalf("NewHAR: %v", err)
	}

	req := api.last()
	if req.Method != http.MethodPut || req.Path != "/proxy/9091/har" {
		t.Errorf("NewHAR sent %s %s, want PUT /proxy/9091/har", req.Method, req.Path)
	}
	want := map[string]string{
		"captureHeaders":       "true",
		"captureContent":       "true",
		"captureBinaryContent": "false",
		"initialPageRef":       "login",
	}
	for k, v := range want {
		if got := req.Form.Get(k); got != v {
			t.Errorf("form %s = %q, want %q", k, got, v)
		}
	}
	if req.Form.Has("initialPageTitle") {
		t.Error("empty initialPageTitle should be omitted")
	}
}

func TestClient_NewPage(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)

	if err := c.NewPage(context.Background(), "checkout", "Checkout"); err != nil {
		t.Fatalf("NewPage: %v", err)
	}

	req := api.last()
	if req.Path != "/proxy/9091/har/pageRef" {
		t.Errorf("NewPage path = %q, want /proxy/9091/har/pageRef", req.Path)
	}
	if req.Form.Get("pageRef") != "checkout" || req.Form.Get("pageTitle") != "Checkout" {
		t.Errorf("form = %v, want pageRef=checkout pageTitle=Checkout", req.Form)
	}
}

func TestClient_HAR(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	api.har = `{
		"log": {
			"version": "1.2",
			"creator": {"name": "BrowserMob Proxy", "version": "2.1.4"},
			"pages": [{"id": "Page 1", "title": "Home"}],
			"entries": [{
				"pageref": "Page 1",
				"request": {"method": "GET", "url": "http://example.com/"},
				"response": {"status": 200, "statusText": "OK"},
				"time": 42
			}]
		}
	}`
	c := openProxy(t, rs, nil)

	har, err := c.HAR(context.Background())
	if err != nil {
		t.Fatalf("HAR: %v", err)
	}
	if har.Log.Version != "1.2" {
		t.Errorf("log version = %q, want 1.2", har.Log.Version)
	}
	if len(har.Log.Pages) != 1 || har.Log.Pages[0].ID != "Page 1" {
		t.Errorf("pages = %+v, want one page with id %q", har.Log.Pages, "Page 1")
	}
	if len(har.Log.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(har.Log.Entries))
	}
	entry := har.Log.Entries[0]
	if entry.Request.URL != "http://example.com/" || entry.Response.Status != 200 {
		t.Errorf("entry = %+v, want GET http://example.com/ -> 200", entry)
	}
}

func TestClient_TrafficRules(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)
	ctx := context.Background()

	if err := c.AllowHosts(ctx, []string{"https?://example\\.com/.*", ".*\\.cdn\\.net/.*"}, 404); err != nil {
		t.Fatalf("AllowHosts: %v", err)
	}
	req := api.last()
	if req.Path != "/proxy/9091/whitelist" {
		t.Errorf("AllowHosts path = %q", req.Path)
	}
	if got := req.Form.Get("regex"); got != "https?://example\\.com/.*,.*\\.cdn\\.net/.*" {
		t.Errorf("regex = %q", got)
	}
	if req.Form.Get("status") != "404" {
		t.Errorf("status = %q, want 404", req.Form.Get("status"))
	}

	if err := c.BlockHosts(ctx, []string{".*ads.*"}, 200); err != nil {
		t.Fatalf("BlockHosts: %v", err)
	}
	req = api.last()
	if req.Path != "/proxy/9091/blacklist" || req.Form.Get("regex") != ".*ads.*" {
		t.Errorf("BlockHosts sent %s form %v", req.Path, req.Form)
	}

	if err := c.SetLimits(ctx, bmproxy.Limits{DownstreamKbps: 256, LatencyMs: 100}); err != nil {
		t.Fatalf("SetLimits: %v", err)
	}
	req = api.last()
	if req.Path != "/proxy/9091/limit" {
		t.Errorf("SetLimits path = %q", req.Path)
	}
	if req.Form.Get("downstreamKbps") != "256" || req.Form.Get("latency") != "100" {
		t.Errorf("limit form = %v", req.Form)
	}
	if req.Form.Has("upstreamKbps") {
		t.Error("zero upstreamKbps should be omitted")
	}

	if err := c.SetTimeouts(ctx, bmproxy.Timeouts{Request: 30, DNSCache: 10}); err != nil {
		t.Fatalf("SetTimeouts: %v", err)
	}
	req = api.last()
	if req.Path != "/proxy/9091/timeout" {
		t.Errorf("SetTimeouts path = %q", req.Path)
	}
	if req.Form.Get("requestTimeout") != "30" || req.Form.Get("dnsCacheTimeout") != "10" {
		t.Errorf("timeout form = %v", req.Form)
	}
}

func TestClient_JSONEndpoints(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)
	ctx := context.Background()

	if err := c.SetHeaders(ctx, map[string]string{"User-Agent": "bmproxy-test"}); err != nil {
		t.Fatalf("SetHeaders: %v", err)
	}
	req := api.last()
	if req.Path != "/proxy/9091/headers" || req.JSON["User-Agent"] != "bmproxy-test" {
		t.Errorf("SetHeaders sent %s body %v", req.Path, req.JSON)
	}

	if err := c.RemapHosts(ctx, map[string]string{"example.com": "127.0.0.1"}); err != nil {
		t.Fatalf("RemapHosts: %v", err)
	}
	req = api.last()
	if req.Path != "/proxy/9091/hosts" || req.JSON["example.com"] != "127.0.0.1" {
		t.Errorf("RemapHosts sent %s body %v", req.Path, req.JSON)
	}

	if err := c.BasicAuth(ctx, "example.com", "alice", "secret"); err != nil {
		t.Fatalf("BasicAuth: %v", err)
	}
	req = api.last()
	if req.Path != "/proxy/9091/auth/basic/example.com" {
		t.Errorf("BasicAuth path = %q", req.Path)
	}
	if req.JSON["username"] != "alice" || req.JSON["password"] != "secret" {
		t.Errorf("BasicAuth body = %v", req.JSON)
	}
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)
	ctx := context.Background()

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	req := api.last()
	if req.Method != http.MethodDelete || req.Path != "/proxy/9091" {
		t.Errorf("Close sent %s %s, want DELETE /proxy/9091", req.Method, req.Path)
	}

	// Idempotent: the second Close does nothing and sends nothing.
	sent := len(api.requests)
	if err := c.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(api.requests) != sent {
		t.Error("second Close should not hit the control API")
	}

	// Every operation after Close is rejected.
	if err := c.NewHAR(ctx, bmproxy.HAROptions{}); !errors.Is(err, bmproxy.ErrProxyClosed) {
		t.Errorf("NewHAR after Close = %v, want ErrProxyClosed", err)
	}
	if err := c.Open(ctx); !errors.Is(err, bmproxy.ErrProxyClosed) {
		t.Errorf("Open after Close = %v, want ErrProxyClosed", err)
	}
}

func TestClient_CloseNeverOpened(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := rs.CreateProxy(nil)

	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("Close without Open: %v", err)
	}
	if len(api.requests) != 0 {
		t.Error("Close without Open should not hit the control API")
	}
}

func TestClient_ControlAPIError(t *testing.T) {
	t.Parallel()

	api, rs := newFakeProxy(t)
	c := openProxy(t, rs, nil)

	api.fail = true
	err := c.NewHAR(context.Background(), bmproxy.HAROptions{})
	if err == nil {
		t.Fatal("NewHAR against failing control API should error")
	}
	for _, want := range []string{"PUT", "/har", "500", "proxy exploded"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %v should mention %q", err, want)
		}
	}
}
