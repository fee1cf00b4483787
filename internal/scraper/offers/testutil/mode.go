package testutil

import (
	"os"
	"testing"
)

// TestMode selects how much of the real world a test may touch.
type TestMode string

const (
	TestModeMock   TestMode = "mock"   // static fixtures only
	TestModeReplay TestMode = "replay" // Chrome against recorded sessions
	TestModeLive   TestMode = "live"   // Chrome against americanexpress.com
)

// Mode reads SCRAPER_TEST_MODE, defaulting to mock.
func Mode() TestMode {
	mode := os.Getenv("SCRAPER_TEST_MODE")
	if mode == "" {
		return TestModeMock
	}
	return TestMode(mode)
}

// SkipUnlessMode skips t unless the current mode is one of modes.
func SkipUnlessMode(t *testing.T, modes ...TestMode) {
	t.Helper()
	current := Mode()
	for _, m := range modes {
		if current == m {
			return
		}
	}
	t.Skipf("Skipping: requires SCRAPER_TEST_MODE=%v", modes)
}
