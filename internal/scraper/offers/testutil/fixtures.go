// Package testutil provides fixtures and helpers for offer automation tests.
package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
)

func fixturePath(site, name string) string {
	// Path relative to this file
	_, filename, _, _ := runtime.Caller(0)
	baseDir := filepath.Dir(filepath.Dir(filename)) // up to offers/

	return filepath.Join(baseDir, site, "testdata", "fixtures", name+".html")
}

// LoadFixture reads an HTML fixture file for the given site
func LoadFixture(t *testing.T, site, name string) string {
	t.Helper()

	data, err := os.ReadFile(fixturePath(site, name))
	if err != nil {
		t.Fatalf("Failed to load fixture %s/%s: %v", site, name, err)
	}

	return string(data)
}

// MustLoadFixture is like LoadFixture but panics on error (for non-test use)
func MustLoadFixture(site, name string) string {
	data, err := os.ReadFile(fixturePath(site, name))
	if err != nil {
		panic(err)
	}

	return string(data)
}

// LoadDocument parses a fixture into a StaticDocument.
func LoadDocument(t *testing.T, site, name string, opts ...browser.StaticOption) *browser.StaticDocument {
	t.Helper()

	doc, err := browser.NewStaticDocument(LoadFixture(t, site, name), opts...)
	if err != nil {
		t.Fatalf("Failed to parse fixture %s/%s: %v", site, name, err)
	}

	return doc
}

// FastTiming returns timings small enough for unit tests. Waits that are
// expected to time out end within a few tens of milliseconds.
func FastTiming() offers.Timing {
	return offers.Timing{
		BetweenOffers:   0,
		AfterCardSwitch: 0,
		WaitForLoad:     0,
		PollingInterval: 1,
		MaxWait:         20,
		SuccessWait:     20,
		ComboboxSettle:  0,
		DismissSettle:   0,
		PausePoll:       1,
	}
}

// ProgressRecorder collects progress events.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []offers.Progress
}

// Record is an offers.ProgressFunc.
func (r *ProgressRecorder) Record(p offers.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

// Events returns the recorded events, optionally filtered by stage.
func (r *ProgressRecorder) Events(stage offers.Stage) []offers.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []offers.Progress
	for _, e := range r.events {
		if stage == "" || e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event.
func (r *ProgressRecorder) Last() (offers.Progress, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return offers.Progress{}, false
	}
	return r.events[len(r.events)-1], true
}
