package bmproxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// defaultRequestTimeout bounds every control API call. The proxy answers
// locally and quickly; this only guards against a wedged proxy.
const defaultRequestTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response body is echoed into
// error messages.
const maxErrorBody = 512

// Client is a handle on one dedicated proxy inside a BrowserMob Proxy
// server. CreateProxy constructs it without network I/O; Open allocates the
// dedicated proxy port via the control API. All other methods require a
// successful Open and return ErrProxyNotOpen before it or ErrProxyClosed
// after Close.
//
// Client is not safe for concurrent use.
type Client struct {
	host    string
	baseURL string            // control API base, http://{host}:{port}
	params  map[string]string // creation parameters, sent verbatim by Open
	hc      *http.Client
	port    int // dedicated proxy port; 0 until Open
	closed  bool
}

// newClient binds a Client to the control API at host:port. params may be
// nil; it is copied, interpreted only by the proxy.
func newClient(host string, port int, params map[string]string) *Client {
	return &Client{
		host:    host,
		baseURL: fmt.Sprintf("http://%s:%d", host, port),
		params:  maps.Clone(params),
		hc:      &http.Client{Timeout: defaultRequestTimeout},
	}
}

// Open allocates a dedicated proxy port by POSTing the creation parameters
// to the control API. Calling Open twice returns an error; Close first.
func (c *Client) Open(ctx context.Context) error {
	if c.closed {
		return ErrProxyClosed
	}
	if c.port != 0 {
		return fmt.Errorf("proxy already open on port %d", c.port)
	}

	u := c.baseURL + "/proxy"
	q := url.Values{}
	for k, v := range c.params {
		q.Set(k, v)
	}
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	var created struct {
		Port int `json:"port"`
	}
	if err := c.do(ctx, http.MethodPost, u, "", nil, &created); err != nil {
		return fmt.Errorf("create proxy: %w", err)
	}
	if created.Port <= 0 {
		return fmt.Errorf("create proxy: control API returned port %d", created.Port)
	}
	c.port = created.Port
	return nil
}

// Port returns the dedicated proxy port allocated by Open, or 0 before Open.
func (c *Client) Port() int { return c.port }

// ProxyAddr returns the host:port browsers should send traffic through.
// Empty before Open.
func (c *Client) ProxyAddr() string {
	if c.port == 0 {
		return ""
	}
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// HAROptions configures a capture started by NewHAR.
type HAROptions struct {
	CaptureHeaders       bool
	CaptureContent       bool
	CaptureBinaryContent bool
	InitialPageRef       string // page ref of the first page; proxy defaults to "Page 1"
	InitialPageTitle     string
}

// NewHAR starts a fresh HAR capture on the dedicated proxy, replacing any
// capture in progress.
func (c *Client) NewHAR(ctx context.Context, opts HAROptions) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	form.Set("captureHeaders", strconv.FormatBool(opts.CaptureHeaders))
	form.Set("captureContent", strconv.FormatBool(opts.CaptureContent))
	form.Set("captureBinaryContent", strconv.FormatBool(opts.CaptureBinaryContent))
	if opts.InitialPageRef != "" {
		form.Set("initialPageRef", opts.InitialPageRef)
	}
	if opts.InitialPageTitle != "" {
		form.Set("initialPageTitle", opts.InitialPageTitle)
	}
	return c.putForm(ctx, "/har", form)
}

// NewPage starts a new page in the current HAR capture. Empty ref or title
// are omitted and the proxy picks its defaults.
func (c *Client) NewPage(ctx context.Context, ref, title string) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	if ref != "" {
		form.Set("pageRef", ref)
	}
	if title != "" {
		form.Set("pageTitle", title)
	}
	return c.putForm(ctx, "/har/pageRef", form)
}

// HAR fetches the capture accumulated since NewHAR.
func (c *Client) HAR(ctx context.Context) (*HAR, error) {
	if err := c.requireOpen(); err != nil {
		return nil, err
	}
	var har HAR
	if err := c.do(ctx, http.MethodGet, c.endpoint("/har"), "", nil, &har); err != nil {
		return nil, fmt.Errorf("fetch har: %w", err)
	}
	return &har, nil
}

// SetHeaders installs headers the proxy adds to every outgoing request.
func (c *Client) SetHeaders(ctx context.Context, headers map[string]string) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	return c.postJSON(ctx, "/headers", headers)
}

// AllowHosts limits the proxy to URLs matching the given regex patterns;
// everything else is answered with statusCode.
func (c *Client) AllowHosts(ctx context.Context, patterns []string, statusCode int) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	form.Set("regex", strings.Join(patterns, ","))
	form.Set("status", strconv.Itoa(statusCode))
	return c.putForm(ctx, "/whitelist", form)
}

// BlockHosts makes the proxy answer URLs matching the given regex patterns
// with statusCode instead of forwarding them.
func (c *Client) BlockHosts(ctx context.Context, patterns []string, statusCode int) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	form.Set("regex", strings.Join(patterns, ","))
	form.Set("status", strconv.Itoa(statusCode))
	return c.putForm(ctx, "/blacklist", form)
}

// Limits shapes the bandwidth and latency of the dedicated proxy.
// Zero-valued fields are not sent and leave the proxy's setting unchanged.
type Limits struct {
	DownstreamKbps int
	UpstreamKbps   int
	LatencyMs      int
}

// SetLimits applies bandwidth and latency shaping.
func (c *Client) SetLimits(ctx context.Context, limits Limits) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	if limits.DownstreamKbps > 0 {
		form.Set("downstreamKbps", strconv.Itoa(limits.DownstreamKbps))
	}
	if limits.UpstreamKbps > 0 {
		form.Set("upstreamKbps", strconv.Itoa(limits.UpstreamKbps))
	}
	if limits.LatencyMs > 0 {
		form.Set("latency", strconv.Itoa(limits.LatencyMs))
	}
	return c.putForm(ctx, "/limit", form)
}

// Timeouts configures the dedicated proxy's network timeouts, in seconds.
// Zero-valued fields are not sent.
type Timeouts struct {
	Request    int
	Read       int
	Connection int
	DNSCache   int
}

// SetTimeouts applies network timeouts.
func (c *Client) SetTimeouts(ctx context.Context, timeouts Timeouts) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	form := url.Values{}
	if timeouts.Request > 0 {
		form.Set("requestTimeout", strconv.Itoa(timeouts.Request))
	}
	if timeouts.Read > 0 {
		form.Set("readTimeout", strconv.Itoa(timeouts.Read))
	}
	if timeouts.Connection > 0 {
		form.Set("connectionTimeout", strconv.Itoa(timeouts.Connection))
	}
	if timeouts.DNSCache > 0 {
		form.Set("dnsCacheTimeout", strconv.Itoa(timeouts.DNSCache))
	}
	return c.putForm(ctx, "/timeout", form)
}

// RemapHosts overrides DNS resolution inside the proxy, mapping host names
// to addresses.
func (c *Client) RemapHosts(ctx context.Context, hosts map[string]string) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	return c.postJSON(ctx, "/hosts", hosts)
}

// BasicAuth installs basic-auth credentials the proxy presents for the
// given domain.
func (c *Client) BasicAuth(ctx context.Context, domain, username, password string) error {
	if err := c.requireOpen(); err != nil {
		return err
	}
	creds := map[string]string{"username": username, "password": password}
	return c.postJSON(ctx, "/auth/basic/"+domain, creds)
}

// Close releases the dedicated proxy port. Idempotent: repeated calls, and
// calls on a Client that was never opened, return nil. After Close every
// other method returns ErrProxyClosed.
func (c *Client) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.port == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodDelete, c.endpoint(""), "", nil, nil); err != nil {
		return fmt.Errorf("close proxy: %w", err)
	}
	return nil
}

// requireOpen gates methods that need the dedicated port.
func (c *Client) requireOpen() error {
	if c.closed {
		return ErrProxyClosed
	}
	if c.port == 0 {
		return ErrProxyNotOpen
	}
	return nil
}

// endpoint builds a control API URL under the dedicated proxy's prefix.
func (c *Client) endpoint(path string) string {
	return c.baseURL + "/proxy/" + strconv.Itoa(c.port) + path
}

// putForm PUTs urlencoded form values to the dedicated proxy's endpoint.
func (c *Client) putForm(ctx context.Context, path string, form url.Values) error {
	err := c.do(ctx, http.MethodPut, c.endpoint(path),
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), nil)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// postJSON POSTs a JSON body to the dedicated proxy's endpoint.
func (c *Client) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", path, err)
	}
	err = c.do(ctx, http.MethodPost, c.endpoint(path),
		"application/json", strings.NewReader(string(payload)), nil)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}

// do performs one control API request. A non-2xx status is an error
// carrying the method, URL, status, and a truncated response body. When out
// is non-nil and the response has a body, it is decoded as JSON into out.
func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: unexpected status %s: %s",
			method, rawURL, resp.Status, strings.TrimSpace(string(snippet)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, rawURL, err)
	}
	return nil
}
