// Package testutil records and replays offers-page browser sessions as HAR
// archives so rod-backed tests can run without reaching americanexpress.com.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
)

// HARLog is the flattened archive the replayer works with. Chrome DevTools
// exports are converted into it on load.
type HARLog struct {
	Entries []HAREntry `json:"entries"`
}

type HAREntry struct {
	Request  HARRequest  `json:"request"`
	Response HARResponse `json:"response"`
}

type HARRequest struct {
	Method  string      `json:"method"`
	URL     string      `json:"url"`
	Headers []HARHeader `json:"headers,omitempty"`
	Body    string      `json:"body,omitempty"`
}

type HARResponse struct {
	Status  int         `json:"status"`
	Headers []HARHeader `json:"headers,omitempty"`
	Content HARContent  `json:"content"`
}

type HARHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// HARContent is a response body. Binary bodies carry Encoding "base64".
type HARContent struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
	Encoding string `json:"encoding,omitempty"`
	Size     int    `json:"size,omitempty"`
}

// devtoolsHAR is the HAR 1.2 layout Chrome DevTools exports: entries sit
// under "log" and request bodies under postData.
type devtoolsHAR struct {
	Log struct {
		Entries []struct {
			Request struct {
				Method   string      `json:"method"`
				URL      string      `json:"url"`
				Headers  []HARHeader `json:"headers,omitempty"`
				PostData *struct {
					Text string `json:"text"`
				} `json:"postData,omitempty"`
			} `json:"request"`
			Response HARResponse `json:"response"`
		} `json:"entries"`
	} `json:"log"`
}

// LoadHAR reads an archive, accepting both the DevTools export and the
// flattened layout written by SaveHAR.
func LoadHAR(path string) (*HARLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read HAR file: %w", err)
	}
	return ParseHAR(data)
}

func ParseHAR(data []byte) (*HARLog, error) {
	var devtools devtoolsHAR
	if err := json.Unmarshal(data, &devtools); err == nil && len(devtools.Log.Entries) > 0 {
		har := &HARLog{Entries: make([]HAREntry, len(devtools.Log.Entries))}
		for i, e := range devtools.Log.Entries {
			req := HARRequest{Method: e.Request.Method, URL: e.Request.URL, Headers: e.Request.Headers}
			if e.Request.PostData != nil {
				req.Body = e.Request.PostData.Text
			}
			har.Entries[i] = HAREntry{Request: req, Response: e.Response}
		}
		return har, nil
	}

	var har HARLog
	if err := json.Unmarshal(data, &har); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	return &har, nil
}

// SaveHAR writes har as indented JSON. Page markup is kept unescaped so
// recordings stay diffable.
func SaveHAR(path string, har *HARLog) error {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(har); err != nil {
		return fmt.Errorf("marshal HAR: %w", err)
	}

	if err := os.WriteFile(path, buffer.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write HAR file: %w", err)
	}
	return nil
}

// MustLoadHAR loads a HAR file and fails the test if it cannot be loaded.
func MustLoadHAR(t *testing.T, path string) *HARLog {
	t.Helper()

	har, err := LoadHAR(path)
	if err != nil {
		t.Fatalf("failed to load HAR file %s: %v", path, err)
	}
	return har
}

// KeepHosts returns a copy of har holding only entries whose host ends with
// one of suffixes. Analytics and ad beacons recorded alongside the offers
// page are dropped this way.
func (har *HARLog) KeepHosts(suffixes ...string) *HARLog {
	out := &HARLog{}
	for _, e := range har.Entries {
		u, err := url.Parse(e.Request.URL)
		if err != nil {
			continue
		}
		for _, s := range suffixes {
			if strings.HasSuffix(u.Hostname(), s) {
				out.Entries = append(out.Entries, e)
				break
			}
		}
	}
	return out
}

// Documents returns the entries that served HTML.
func (har *HARLog) Documents() []HAREntry {
	var docs []HAREntry
	for _, e := range har.Entries {
		if strings.HasPrefix(e.Response.Content.MimeType, "text/html") {
			docs = append(docs, e)
		}
	}
	return docs
}

// matchKey drops the query string, which carries per-session noise.
func matchKey(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	return u.Scheme + "://" + u.Host + u.Path, true
}
