package testutil

import (
	"net/url"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// SensitiveKeys match query, form, header and JSON keys whose values are
// redacted.
var SensitiveKeys = []string{
	`(?i)password`,
	`(?i)passwd`,
	`(?i)secret`,
	`(?i)token`,
	`(?i)session`,
	`(?i)auth`,
	`(?i)jwt`,
	`(?i)bearer`,
	`(?i)api_?key`,
	`(?i)credential`,
	`(?i)account_?key`,
	`(?i)card_?member`,
	`(?i)elilo`,
	`(?i)user_?id`,
}

// SensitiveHeaders are redacted regardless of SensitiveKeys.
var SensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-auth-token":        true,
	"x-api-key":           true,
	"x-csrf-token":        true,
	"x-xsrf-token":        true,
	"proxy-authorization": true,
}

// valueRule rewrites matches anywhere in URLs and bodies.
type valueRule struct {
	re   *regexp.Regexp
	repl string
}

var valueRules = []valueRule{
	// account keys embedded in links and markup
	{regexp.MustCompile(`(?i)(account_key=)[A-Fa-f0-9]+`), "${1}" + redacted},
	{regexp.MustCompile(`(data-account-key=")[^"]*`), "${1}" + redacted},
	// masked card numbers such as ••1005 or ****31007
	{regexp.MustCompile(`(••|\*{2,})\d{4,5}\b`), "${1}0000"},
}

// Sanitizer redacts credentials, account keys and card member names from
// recorded sessions before they are committed as fixtures.
type Sanitizer struct {
	keys  []*regexp.Regexp
	json  []*regexp.Regexp
	names []string
}

// NewSanitizer compiles SensitiveKeys. names are literal strings, such as the
// card member's name, replaced wherever they appear.
func NewSanitizer(names ...string) *Sanitizer {
	s := &Sanitizer{}
	for _, p := range SensitiveKeys {
		s.keys = append(s.keys, regexp.MustCompile(p))
		s.json = append(s.json, regexp.MustCompile(`("[^"]*`+p+`[^"]*")\s*:\s*("[^"]*"|[^",}\]\s]+)`))
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			s.names = append(s.names, n)
		}
	}
	return s
}

// SanitizeHAR redacts har with the default rules and no member names.
func SanitizeHAR(har *HARLog) *HARLog {
	return NewSanitizer().HAR(har)
}

// HAR returns a redacted copy of har.
func (s *Sanitizer) HAR(har *HARLog) *HARLog {
	out := &HARLog{Entries: make([]HAREntry, len(har.Entries))}
	for i, e := range har.Entries {
		out.Entries[i] = HAREntry{
			Request: HARRequest{
				Method:  e.Request.Method,
				URL:     s.URL(e.Request.URL),
				Headers: s.Headers(e.Request.Headers),
				Body:    s.Body(e.Request.Body),
			},
			Response: HARResponse{
				Status:  e.Response.Status,
				Headers: s.Headers(e.Response.Headers),
				Content: s.content(e.Response.Content),
			},
		}
	}
	return out
}

func (s *Sanitizer) content(c HARContent) HARContent {
	// base64 bodies are images and fonts
	if c.Encoding != "base64" {
		c.Text = s.Body(c.Text)
	}
	return c
}

func (s *Sanitizer) URL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return s.Text(raw)
	}

	query := parsed.Query()
	for key := range query {
		if s.sensitive(key) {
			query.Set(key, redacted)
		}
	}
	parsed.RawQuery = query.Encode()
	return s.Text(parsed.String())
}

func (s *Sanitizer) Headers(headers []HARHeader) []HARHeader {
	out := make([]HARHeader, len(headers))
	for i, h := range headers {
		out[i] = h
		if SensitiveHeaders[strings.ToLower(h.Name)] || s.sensitive(h.Name) {
			out[i].Value = redacted
		}
	}
	return out
}

// Body redacts form, JSON and HTML bodies.
func (s *Sanitizer) Body(body string) string {
	if body == "" {
		return body
	}

	trimmed := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
		for _, re := range s.json {
			body = re.ReplaceAllString(body, `$1: "`+redacted+`"`)
		}
	case strings.HasPrefix(trimmed, "<"):
	case strings.Contains(body, "="):
		if values, err := url.ParseQuery(body); err == nil {
			for key := range values {
				if s.sensitive(key) {
					values.Set(key, redacted)
				}
			}
			body = values.Encode()
		}
	}
	return s.Text(body)
}

// Text applies the value rules and member names to free text.
func (s *Sanitizer) Text(text string) string {
	for _, r := range valueRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	for _, n := range s.names {
		text = strings.ReplaceAll(text, n, "Card Member")
	}
	return text
}

func (s *Sanitizer) sensitive(key string) bool {
	for _, re := range s.keys {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}
