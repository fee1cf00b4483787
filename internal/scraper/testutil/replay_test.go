package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func replayFixture() *HARLog {
	return &HARLog{Entries: []HAREntry{
		{
			Request:  HARRequest{Method: "GET", URL: "https://global.americanexpress.com/offers?account_key=AB12"},
			Response: HARResponse{Status: 200, Content: HARContent{MimeType: "text/html", Text: "offers"}},
		},
		{
			Request:  HARRequest{Method: "GET", URL: "https://global.americanexpress.com/login"},
			Response: HARResponse{Status: 302, Headers: []HARHeader{{Name: "Location", Value: "https://global.americanexpress.com/offers?account_key=ZZ"}}},
		},
		{
			Request:  HARRequest{Method: "GET", URL: "https://global.americanexpress.com/logout"},
			Response: HARResponse{Status: 301, Headers: []HARHeader{{Name: "location", Value: "https://www.americanexpress.com/"}}},
		},
	}}
}

func TestReplayer_Lookup(t *testing.T) {
	r := NewReplayer(replayFixture())

	tests := []struct {
		name   string
		url    string
		found  bool
		status int
	}{
		{"exact", "https://global.americanexpress.com/offers?account_key=AB12", true, 200},
		{"path fallback", "https://global.americanexpress.com/offers?account_key=FFEE", true, 200},
		{"follows redirect", "https://global.americanexpress.com/login", true, 200},
		{"unrecorded redirect target", "https://global.americanexpress.com/logout", true, 301},
		{"unknown", "https://global.americanexpress.com/dashboard", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := r.Lookup(tt.url)

			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.status, entry.Response.Status)
			}
		})
	}
}

func TestReplayer_Stats(t *testing.T) {
	r := NewReplayer(replayFixture())

	stats := r.Stats()

	assert.Equal(t, 3, stats.Exact)
	assert.Equal(t, 3, stats.ByPath)
	assert.Zero(t, stats.Hits)
	assert.Empty(t, stats.Misses)
}

func TestHeaderLookupIsCaseInsensitive(t *testing.T) {
	headers := []HARHeader{{Name: "Content-Type", Value: "text/html"}}

	assert.Equal(t, "text/html", header(headers, "content-type"))
	assert.Empty(t, header(headers, "location"))
}
