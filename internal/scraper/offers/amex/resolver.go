package amex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// Resolver waits for elements to appear, trying a primary selector and then
// its fallbacks. Running out of time is reported as offers.ErrNotFound.
type Resolver struct {
	doc    browser.Document
	timing offers.Timing
	logger zerolog.Logger
}

func NewResolver(doc browser.Document, timing offers.Timing, logger zerolog.Logger) *Resolver {
	return &Resolver{
		doc:    doc,
		timing: timing.WithDefaults(),
		logger: logger.With().Str("component", "resolver").Logger(),
	}
}

// Resolve polls the document for selector until it matches or timeout
// elapses. A non-positive timeout uses timing.max_wait. The document is
// always queried at least once.
func (r *Resolver) Resolve(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	if timeout <= 0 {
		timeout = r.timing.MaxWaitTimeout()
	}
	return r.poll(ctx, selector, timeout)
}

// poll queries selector until it matches or timeout elapses. A non-positive
// timeout means a single query with no wait.
func (r *Resolver) poll(ctx context.Context, selector string, timeout time.Duration) (browser.Element, error) {
	deadline := time.Now().Add(timeout)

	for {
		el, err := r.doc.Query(selector)
		switch {
		case err != nil:
			r.logger.Debug().Err(err).Str("selector", selector).Msg("query failed")
		case el != nil:
			r.logger.Debug().Str("selector", selector).Msg("element found")
			return el, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := sleep(ctx, min(r.timing.PollEvery(), remaining)); err != nil {
			return nil, err
		}
	}

	r.logger.Debug().Str("selector", selector).Dur("timeout", timeout).Msg("timeout waiting for element")
	return nil, fmt.Errorf("%w: %s", offers.ErrNotFound, selector)
}

// ResolveAny tries each selector in order. The remaining budget is split
// evenly across the candidates still to try, so a selector that fails fast
// leaves more time to the ones after it.
func (r *Resolver) ResolveAny(ctx context.Context, selectors []string, timeout time.Duration) (browser.Element, error) {
	selectors = compact(selectors)
	if len(selectors) == 0 {
		return nil, fmt.Errorf("%w: no selectors", offers.ErrNotFound)
	}
	if timeout <= 0 {
		timeout = r.timing.MaxWaitTimeout()
	}
	deadline := time.Now().Add(timeout)

	for i, sel := range selectors {
		// Once the budget is spent the rest get one query each.
		share := time.Until(deadline) / time.Duration(len(selectors)-i)
		el, err := r.poll(ctx, sel, share)
		if err == nil {
			return el, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w: %s", offers.ErrNotFound, strings.Join(selectors, ", "))
}

// ResolveChain resolves primary with the full timeout, then the fallbacks
// sharing another full timeout.
func (r *Resolver) ResolveChain(ctx context.Context, primary string, fallbacks []string, timeout time.Duration) (browser.Element, error) {
	if primary != "" {
		el, err := r.Resolve(ctx, primary, timeout)
		if err == nil {
			return el, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	if len(compact(fallbacks)) == 0 {
		return nil, fmt.Errorf("%w: %s", offers.ErrNotFound, primary)
	}

	r.logger.Debug().Str("primary", primary).Msg("primary selector not found, trying fallbacks")
	return r.ResolveAny(ctx, fallbacks, timeout)
}

// scope is anything selectors can be evaluated against.
type scope interface {
	Query(selector string) (browser.Element, error)
	QueryAll(selector string) ([]browser.Element, error)
}

// probe evaluates one selector. ok reports acceptance; err aborts the chain.
type probe[T any] func(selector string) (v T, ok bool, err error)

// firstAccepted walks a selector chain and returns the first value the probe
// accepts. It does not wait.
func firstAccepted[T any](chain []string, p probe[T]) (T, bool, error) {
	var zero T
	for _, sel := range chain {
		v, ok, err := p(sel)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return zero, false, nil
}

// Acceptance policies. A selector the document rejects counts as a miss for
// that selector only.

func firstElementIn(s scope, logger zerolog.Logger) probe[browser.Element] {
	return func(sel string) (browser.Element, bool, error) {
		el, err := s.Query(sel)
		if err != nil {
			logger.Debug().Err(err).Str("selector", sel).Msg("selector rejected")
			return nil, false, nil
		}
		return el, el != nil, nil
	}
}

func firstTextIn(s scope, logger zerolog.Logger) probe[string] {
	return func(sel string) (string, bool, error) {
		el, err := s.Query(sel)
		if err != nil {
			logger.Debug().Err(err).Str("selector", sel).Msg("selector rejected")
			return "", false, nil
		}
		if el == nil {
			return "", false, nil
		}
		text, err := el.Text()
		if err != nil {
			return "", false, err
		}
		text = strings.TrimSpace(text)
		return text, text != "", nil
	}
}

func allIn(s scope, logger zerolog.Logger) probe[[]browser.Element] {
	return func(sel string) ([]browser.Element, bool, error) {
		els, err := s.QueryAll(sel)
		if err != nil {
			logger.Debug().Err(err).Str("selector", sel).Msg("selector rejected")
			return nil, false, nil
		}
		return els, len(els) > 0, nil
	}
}

// chain builds primary + fallbacks, dropping empty selectors.
func chain(primary string, fallbacks []string) []string {
	return compact(append([]string{primary}, fallbacks...))
}

func compact(selectors []string) []string {
	out := make([]string, 0, len(selectors))
	for _, s := range selectors {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
