package testutil

import (
	"encoding/base64"
	"net/http"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"
)

const maxRedirects = 10

// Replayer serves recorded responses to a hijacked Rod browser.
type Replayer struct {
	exact map[string]*HAREntry
	// byPath is the fallback when the query string differs.
	byPath map[string]*HAREntry

	passthrough bool
	logger      zerolog.Logger

	mu     sync.Mutex
	hits   int
	misses []string
}

type ReplayerOption func(*Replayer)

// WithPassthrough lets unmatched requests reach the network instead of
// answering 404.
func WithPassthrough(enabled bool) ReplayerOption {
	return func(r *Replayer) {
		r.passthrough = enabled
	}
}

// WithLogger logs matches and misses at debug level.
func WithLogger(logger zerolog.Logger) ReplayerOption {
	return func(r *Replayer) {
		r.logger = logger.With().Str("component", "replayer").Logger()
	}
}

func NewReplayer(har *HARLog, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		exact:  make(map[string]*HAREntry),
		byPath: make(map[string]*HAREntry),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	for i := range har.Entries {
		entry := &har.Entries[i]
		r.exact[entry.Request.URL] = entry
		if key, ok := matchKey(entry.Request.URL); ok {
			if _, seen := r.byPath[key]; !seen {
				r.byPath[key] = entry
			}
		}
	}
	return r
}

// Lookup returns the recorded entry for reqURL, following recorded redirects.
func (r *Replayer) Lookup(reqURL string) (*HAREntry, bool) {
	entry, ok := r.find(reqURL)
	if !ok {
		return nil, false
	}

	for i := 0; i < maxRedirects; i++ {
		status := entry.Response.Status
		if status < 300 || status >= 400 {
			break
		}
		location := header(entry.Response.Headers, "location")
		if location == "" {
			break
		}
		next, ok := r.find(location)
		if !ok {
			r.logger.Debug().Str("location", location).Msg("redirect target not recorded")
			break
		}
		r.logger.Debug().Int("status", status).Str("location", location).Msg("following redirect")
		entry = next
	}
	return entry, true
}

func (r *Replayer) find(reqURL string) (*HAREntry, bool) {
	if e, ok := r.exact[reqURL]; ok {
		return e, true
	}
	if key, ok := matchKey(reqURL); ok {
		e, ok := r.byPath[key]
		return e, ok
	}
	return nil, false
}

// Middleware returns a handler for router.MustAdd("*", ...), or for
// browser.LaunchOptions.Hijack.
func (r *Replayer) Middleware() func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		reqURL := h.Request.URL().String()

		entry, ok := r.Lookup(reqURL)
		if !ok {
			r.mu.Lock()
			r.misses = append(r.misses, reqURL)
			r.mu.Unlock()
			r.logger.Debug().Str("url", reqURL).Bool("passthrough", r.passthrough).Msg("no recording")

			if r.passthrough {
				_ = h.LoadResponse(http.DefaultClient, true)
				return
			}
			notFound(h)
			return
		}

		r.mu.Lock()
		r.hits++
		r.mu.Unlock()
		r.logger.Debug().Str("url", reqURL).Int("status", entry.Response.Status).Msg("replayed")

		serve(h, entry.Response)
	}
}

func serve(h *rod.Hijack, resp HARResponse) {
	body := []byte(resp.Content.Text)
	if resp.Content.Encoding == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Content.Text); err == nil {
			body = decoded
		}
	}

	var headers []*proto.FetchHeaderEntry
	for _, hd := range resp.Headers {
		switch strings.ToLower(hd.Name) {
		case "content-encoding", "content-length", "location":
			continue
		}
		headers = append(headers, &proto.FetchHeaderEntry{Name: hd.Name, Value: hd.Value})
	}
	if header(resp.Headers, "content-type") == "" && resp.Content.MimeType != "" {
		headers = append(headers, &proto.FetchHeaderEntry{Name: "Content-Type", Value: resp.Content.MimeType})
	}

	payload := h.Response.Payload()
	payload.ResponseCode = resp.Status
	payload.ResponseHeaders = headers
	payload.Body = body
}

func notFound(h *rod.Hijack) {
	payload := h.Response.Payload()
	payload.ResponseCode = http.StatusNotFound
	payload.ResponseHeaders = []*proto.FetchHeaderEntry{
		{Name: "Content-Type", Value: "application/json"},
	}
	payload.Body = []byte(`{"error": "no recording found for URL"}`)
}

func header(headers []HARHeader, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// ReplayStats summarizes the index and the traffic served so far.
type ReplayStats struct {
	Exact  int
	ByPath int
	Hits   int
	Misses []string
}

func (r *Replayer) Stats() ReplayStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ReplayStats{
		Exact:  len(r.exact),
		ByPath: len(r.byPath),
		Hits:   r.hits,
		Misses: append([]string(nil), r.misses...),
	}
}
