package testutil

import (
	"encoding/base64"
	"mime"
	"net/http"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

// Recorder fetches every hijacked request from the network and keeps the
// exchange, producing a HARLog the Replayer can serve later.
type Recorder struct {
	client *http.Client
	logger zerolog.Logger

	mu  sync.Mutex
	log HARLog
}

func NewRecorder(client *http.Client, logger zerolog.Logger) *Recorder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Recorder{
		client: client,
		logger: logger.With().Str("component", "recorder").Logger(),
	}
}

// Middleware returns a handler for browser.LaunchOptions.Hijack.
func (r *Recorder) Middleware() func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		req := h.Request.Req()
		reqURL := h.Request.URL().String()

		if err := h.LoadResponse(r.client, true); err != nil {
			r.logger.Debug().Err(err).Str("url", reqURL).Msg("request failed")
			h.Response.Fail(proto.NetworkErrorReasonFailed)
			return
		}

		r.Add(exchange(h.Request.Method(), reqURL, req.Header, h.Request.Body(), h.Response.Payload()))
	}
}

// Add appends an entry.
func (r *Recorder) Add(e HAREntry) {
	r.mu.Lock()
	r.log.Entries = append(r.log.Entries, e)
	r.mu.Unlock()
}

// HAR returns a copy of what was recorded so far.
func (r *Recorder) HAR() *HARLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &HARLog{Entries: append([]HAREntry(nil), r.log.Entries...)}
}

func exchange(method, reqURL string, reqHeader http.Header, reqBody string, resp *proto.FetchFulfillRequest) HAREntry {
	e := HAREntry{
		Request: HARRequest{
			Method:  method,
			URL:     reqURL,
			Headers: flatten(reqHeader),
			Body:    reqBody,
		},
		Response: HARResponse{Status: resp.ResponseCode},
	}

	for _, h := range resp.ResponseHeaders {
		e.Response.Headers = append(e.Response.Headers, HARHeader{Name: h.Name, Value: h.Value})
	}

	mimeType := header(e.Response.Headers, "content-type")
	e.Response.Content = HARContent{MimeType: mimeType, Size: len(resp.Body)}
	if textual(mimeType) {
		e.Response.Content.Text = string(resp.Body)
	} else {
		e.Response.Content.Text = base64.StdEncoding.EncodeToString(resp.Body)
		e.Response.Content.Encoding = "base64"
	}
	return e
}

func flatten(h http.Header) []HARHeader {
	var out []HARHeader
	for name, values := range h {
		for _, v := range values {
			out = append(out, HARHeader{Name: name, Value: v})
		}
	}
	return out
}

func textual(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "text/") ||
		strings.HasSuffix(mt, "json") ||
		strings.HasSuffix(mt, "javascript") ||
		strings.HasSuffix(mt, "xml")
}
