package browser

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rs/zerolog"
)

// LaunchOptions configures the Chrome instance driving the offers page.
type LaunchOptions struct {
	Headless   bool
	ProfileDir string
	// Bin is the Chrome binary. Empty means the system Chrome when found,
	// otherwise Rod's managed Chromium.
	Bin          string
	WindowWidth  int
	WindowHeight int
	// Hijack, when set, intercepts every request (HAR replay in tests).
	Hijack func(*rod.Hijack)
}

// Session is a launched browser with one stealth page.
type Session struct {
	Browser  *rod.Browser
	Page     *rod.Page
	launcher *launcher.Launcher
	router   *rod.HijackRouter
}

// Launch starts Chrome and opens a stealth page.
func Launch(opts LaunchOptions, logger zerolog.Logger) (*Session, error) {
	// Leakless deadlocks on Windows: https://github.com/go-rod/rod/issues/853
	l := launcher.New().
		Leakless(runtime.GOOS != "windows").
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("no-first-run").
		Set("no-default-browser-check")

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	}

	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
		logger.Debug().Str("profile", opts.ProfileDir).Msg("using browser profile")
	}

	bin := opts.Bin
	if bin == "" {
		if path, ok := launcher.LookPath(); ok {
			bin = path
		}
	}
	if bin != "" {
		l = l.Bin(bin)
		logger.Debug().Str("bin", bin).Msg("using system chrome")
	}

	controlURL, err := l.Launch()
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "ProcessSingleton") || strings.Contains(msg, "SingletonLock") {
			return nil, fmt.Errorf("chrome is already running with profile %s, close it first: %w", opts.ProfileDir, err)
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	s := &Session{Browser: b, launcher: l}

	if opts.Hijack != nil {
		s.router = b.HijackRequests()
		s.router.MustAdd("*", opts.Hijack)
		go s.router.Run()
	}

	page, err := stealth.Page(b)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}
	s.Page = page

	logger.Info().Bool("headless", opts.Headless).Msg("browser launched")
	return s, nil
}

// Document returns the page as a Document.
func (s *Session) Document() *RodDocument {
	return NewRodDocument(s.Page)
}

// Alive reports whether the browser and page still respond.
func (s *Session) Alive() bool {
	if s.Browser == nil {
		return false
	}
	if _, err := s.Browser.Version(); err != nil {
		return false
	}
	if s.Page != nil {
		if _, err := s.Page.Info(); err != nil {
			return false
		}
	}
	return true
}

// Close tears down the page, browser and launcher. Safe to call twice.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
		s.router = nil
	}
	if s.Page != nil {
		_ = s.Page.Close()
		s.Page = nil
	}
	if s.Browser != nil {
		_ = s.Browser.Close()
		s.Browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}
