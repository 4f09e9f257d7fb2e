package bmproxy

import (
	"encoding/json"
	"fmt"

	"github.com/webperf/bmproxy/internal/fileutil"
)

// HAR is the top-level HTTP Archive document returned by Client.HAR.
// Only the fields BrowserMob Proxy populates are modeled; timestamps stay
// strings (ISO 8601) so decoding never fails on the proxy's formatting.
type HAR struct {
	Log HARLog `json:"log"`
}

// WriteFile saves the archive as JSON at path, creating parent directories
// as needed. The file is written atomically so a reader (a HAR viewer
// watching the file, say) never sees a partial document.
func (h *HAR) WriteFile(path string) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("encode har: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write har: %w", err)
	}
	return nil
}

// HARLog is the body of a HAR document.
type HARLog struct {
	Version string     `json:"version"`
	Creator HARCreator `json:"creator"`
	Pages   []HARPage  `json:"pages"`
	Entries []HAREntry `json:"entries"`
}

// HARCreator identifies the software that produced the archive.
type HARCreator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HARPage is one page of a capture, started by NewHAR or NewPage.
type HARPage struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	StartedDateTime string         `json:"startedDateTime"`
	PageTimings     HARPageTimings `json:"pageTimings"`
}

// HARPageTimings holds page load milestones in milliseconds; -1 means the
// milestone was not observed.
type HARPageTimings struct {
	OnContentLoad float64 `json:"onContentLoad"`
	OnLoad        float64 `json:"onLoad"`
}

// HAREntry is one captured request/response exchange.
type HAREntry struct {
	Pageref         string      `json:"pageref"`
	StartedDateTime string      `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         HARRequest  `json:"request"`
	Response        HARResponse `json:"response"`
	ServerIPAddress string      `json:"serverIPAddress,omitempty"`
}

// HARRequest is the request half of an entry.
type HARRequest struct {
	Method      string         `json:"method"`
	URL         string         `json:"url"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     []HARNameValue `json:"headers"`
	QueryString []HARNameValue `json:"queryString"`
	HeadersSize int64          `json:"headersSize"`
	BodySize    int64          `json:"bodySize"`
}

// HARResponse is the response half of an entry.
type HARResponse struct {
	Status      int            `json:"status"`
	StatusText  string         `json:"statusText"`
	HTTPVersion string         `json:"httpVersion"`
	Headers     []HARNameValue `json:"headers"`
	Content     HARContent     `json:"content"`
	HeadersSize int64          `json:"headersSize"`
	BodySize    int64          `json:"bodySize"`
}

// HARContent describes a response body; Text is present only when content
// capture was enabled.
type HARContent struct {
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
}

// HARNameValue is a name/value pair (headers, query parameters).
type HARNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
