package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const devtoolsExport = `{
  "log": {
    "version": "1.2",
    "creator": {"name": "WebInspector", "version": "537.36"},
    "entries": [
      {
        "request": {
          "method": "POST",
          "url": "https://global.americanexpress.com/myca/logon",
          "postData": {"mimeType": "application/x-www-form-urlencoded", "text": "eliloUserID=jdoe"}
        },
        "response": {"status": 302, "headers": [{"name": "Location", "value": "https://global.americanexpress.com/offers"}], "content": {"mimeType": "", "text": ""}}
      },
      {
        "request": {"method": "GET", "url": "https://global.americanexpress.com/offers"},
        "response": {"status": 200, "content": {"mimeType": "text/html; charset=utf-8", "text": "<html></html>"}}
      },
      {
        "request": {"method": "GET", "url": "https://www.google-analytics.com/collect?v=1"},
        "response": {"status": 204, "content": {"mimeType": "", "text": ""}}
      }
    ]
  }
}`

func TestParseHAR_DevtoolsExport(t *testing.T) {
	har, err := ParseHAR([]byte(devtoolsExport))
	require.NoError(t, err)

	require.Len(t, har.Entries, 3)
	assert.Equal(t, "POST", har.Entries[0].Request.Method)
	assert.Equal(t, "eliloUserID=jdoe", har.Entries[0].Request.Body)
	assert.Equal(t, 302, har.Entries[0].Response.Status)
}

func TestParseHAR_Flattened(t *testing.T) {
	har, err := ParseHAR([]byte(`{"entries":[{"request":{"method":"GET","url":"https://example.com/"},"response":{"status":200,"content":{"mimeType":"text/html","text":"ok"}}}]}`))
	require.NoError(t, err)

	require.Len(t, har.Entries, 1)
	assert.Equal(t, "ok", har.Entries[0].Response.Content.Text)
}

func TestParseHAR_Invalid(t *testing.T) {
	_, err := ParseHAR([]byte(`not json`))
	assert.Error(t, err)
}

func TestSaveHAR_KeepsMarkupReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.har.json")
	har, err := ParseHAR([]byte(devtoolsExport))
	require.NoError(t, err)

	require.NoError(t, SaveHAR(path, har))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<html></html>")

	loaded := MustLoadHAR(t, path)
	assert.Equal(t, har, loaded)
}

func TestKeepHostsAndDocuments(t *testing.T) {
	har, err := ParseHAR([]byte(devtoolsExport))
	require.NoError(t, err)

	kept := har.KeepHosts("americanexpress.com")

	assert.Len(t, kept.Entries, 2)
	docs := kept.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "https://global.americanexpress.com/offers", docs[0].Request.URL)
}
