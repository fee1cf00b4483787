package amex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// Credentials for the Amex login form. Empty credentials mean the user logs
// in by hand in the browser window.
type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// EnsureOffersPage returns offers.ErrNotOffersPage unless the document URL
// contains pattern. An empty pattern means OffersURLPattern.
func EnsureOffersPage(doc browser.Document, pattern string) error {
	if pattern == "" {
		pattern = OffersURLPattern
	}
	u, err := doc.URL()
	if err != nil {
		return fmt.Errorf("read page url: %w", err)
	}
	if !strings.Contains(u, pattern) {
		return fmt.Errorf("%w: %s", offers.ErrNotOffersPage, u)
	}
	return nil
}

// Navigator opens the offers page in a live browser, logging in on the way
// when the site asks for it.
type Navigator struct {
	page      *rod.Page
	selectors offers.SelectorConfig
	logger    zerolog.Logger
	// Fast types credentials in one call, for replay sessions.
	Fast bool
	// URLPattern overrides OffersURLPattern for the page guard.
	URLPattern string
}

func NewNavigator(page *rod.Page, selectors offers.SelectorConfig, logger zerolog.Logger) *Navigator {
	return &Navigator{
		page:      page,
		selectors: selectors,
		logger:    logger.With().Str("component", "navigator").Logger(),
	}
}

// Open navigates to the offers page and waits until the card switcher is
// visible. When the login form shows up, creds are submitted; with empty
// creds the user has until loginTimeout to log in manually.
func (n *Navigator) Open(ctx context.Context, creds Credentials, loginTimeout time.Duration) error {
	page := n.page.Context(ctx)

	n.logger.Info().Str("url", OffersURL).Msg("opening offers page")
	if err := page.Navigate(OffersURL); err != nil {
		return fmt.Errorf("navigate to offers: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for offers page: %w", err)
	}

	doc := browser.NewRodDocument(n.page)
	if err := sleep(ctx, n.selectors.Timing.WaitForLoadDelay()); err != nil {
		return err
	}

	form, err := doc.Query(SelectorUserInput)
	if err != nil {
		return fmt.Errorf("inspect login form: %w", err)
	}

	switch {
	case form == nil:
		n.logger.Debug().Msg("already logged in")
	case creds.Empty():
		n.logger.Warn().Dur("timeout", loginTimeout).Msg("log in through the browser window to continue")
	default:
		if err := n.login(ctx, creds); err != nil {
			return err
		}
	}

	resolver := NewResolver(doc, n.selectors.Timing, n.logger)
	if _, err := resolver.ResolveChain(ctx, n.selectors.Cards.Switcher, n.selectors.Cards.SwitcherFallbacks, loginTimeout); err != nil {
		return &offers.AutomationError{
			Operation: "open offers page",
			Cause:     err,
			Details:   "card switcher never appeared, check the login",
		}
	}

	if err := EnsureOffersPage(doc, n.URLPattern); err != nil {
		n.logger.Warn().Err(err).Msg("landed outside the offers page, navigating back")
		if err := page.Navigate(OffersURL); err != nil {
			return fmt.Errorf("navigate to offers: %w", err)
		}
		if err := page.WaitLoad(); err != nil {
			return fmt.Errorf("wait for offers page: %w", err)
		}
	}

	n.logger.Info().Msg("offers page ready")
	return nil
}

func (n *Navigator) login(ctx context.Context, creds Credentials) error {
	page := n.page.Context(ctx)
	n.logger.Info().Msg("submitting login form")

	fields := []struct {
		selector string
		value    string
	}{
		{SelectorUserInput, creds.Username},
		{SelectorPasswordInput, creds.Password},
	}
	for _, f := range fields {
		el, err := page.Element(f.selector)
		if err != nil {
			return fmt.Errorf("find %s: %w", f.selector, err)
		}
		if n.Fast {
			err = browser.TypeFast(el, f.value)
		} else {
			err = browser.TypeHuman(ctx, el, f.value)
		}
		if err != nil {
			return fmt.Errorf("type into %s: %w", f.selector, err)
		}
	}

	btn, err := page.Element(SelectorLoginButton)
	if err != nil {
		return fmt.Errorf("find login button: %w", err)
	}
	if err := browser.WrapElement(btn).Click(); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	return page.WaitLoad()
}
