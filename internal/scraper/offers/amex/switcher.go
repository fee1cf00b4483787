package amex

import (
	"context"
	"fmt"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// CardSwitcher makes a card the active one on the offers page.
type CardSwitcher struct {
	doc       browser.Document
	selectors offers.SelectorConfig
	resolver  *Resolver
	logger    zerolog.Logger
}

func NewCardSwitcher(doc browser.Document, selectors offers.SelectorConfig, resolver *Resolver, logger zerolog.Logger) *CardSwitcher {
	return &CardSwitcher{
		doc:       doc,
		selectors: selectors,
		resolver:  resolver,
		logger:    logger.With().Str("component", "switcher").Logger(),
	}
}

// SwitchTo activates card and waits for its offers to load. It reports
// whether the offers container is present afterwards and never panics.
func (w *CardSwitcher) SwitchTo(ctx context.Context, card offers.Card) (ok bool) {
	log := w.logger.With().Str("card", card.Name).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("card switch panicked")
			ok = false
		}
	}()

	if err := w.activate(ctx, card); err != nil {
		log.Error().Err(err).Msg("failed to switch card")
		return false
	}

	if err := sleep(ctx, w.selectors.Timing.AfterCardSwitchDelay()); err != nil {
		log.Warn().Err(err).Msg("card switch interrupted")
		return false
	}

	sel := w.selectors.Offers
	if _, err := w.resolver.ResolveChain(ctx, sel.Container, sel.ContainerFallbacks, 0); err != nil {
		log.Error().Err(err).Msg("offers did not load after card switch")
		return false
	}

	log.Info().Msg("switched card")
	return true
}

func (w *CardSwitcher) activate(ctx context.Context, card offers.Card) error {
	if card.Synthetic {
		return nil
	}

	switcher, err := w.resolver.ResolveChain(ctx, w.selectors.Cards.Switcher, w.selectors.Cards.SwitcherFallbacks, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", offers.ErrSwitcherNotFound, err)
	}

	tag, err := switcher.TagName()
	if err != nil {
		return err
	}

	if card.Kind == offers.SwitcherSelect || (card.Kind == "" && tag == "SELECT") {
		target := switcher
		if tag != "SELECT" {
			nested, err := switcher.Query("select")
			if err != nil {
				return err
			}
			if nested == nil {
				return fmt.Errorf("%w: no select element", offers.ErrSwitcherNotFound)
			}
			target = nested
		}
		return target.SetValue(card.Value)
	}

	target, err := w.locate(ctx, switcher, card)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%w: card %q", offers.ErrNotFound, card.Name)
	}
	return target.Click()
}

// locate finds the clickable node for card in the live page, matching on its
// value and then its label. For tabs and buttons the node kept from discovery
// is the last resort and may be stale; combobox options must be found again.
func (w *CardSwitcher) locate(ctx context.Context, switcher browser.Element, card offers.Card) (browser.Element, error) {
	switch card.Kind {
	case offers.SwitcherTabs:
		return w.match(switcher, `[role="tab"]`, card, tabValue)
	case offers.SwitcherButtons:
		return w.match(switcher, "button", card, buttonValue)
	case offers.SwitcherCombobox:
		options, err := openCombobox(ctx, w.doc, switcher, w.selectors.Timing, w.logger)
		if err != nil {
			return nil, err
		}
		for i, opt := range options {
			key, err := optionAccountKey(opt, i)
			if err != nil {
				return nil, err
			}
			text, err := trimmedText(opt)
			if err != nil {
				return nil, err
			}
			if key == card.AccountKey || text == card.Name {
				return opt, nil
			}
		}
		if options != nil {
			closeCombobox(ctx, w.doc, w.selectors.Timing, w.logger)
		}
		// The stored option lives in a list that is now closed.
		return nil, fmt.Errorf("%w: option for card %q", offers.ErrNotFound, card.Name)
	}
	return card.Ref, nil
}

func (w *CardSwitcher) match(switcher browser.Element, selector string, card offers.Card, value func(browser.Element, int) (string, error)) (browser.Element, error) {
	candidates, err := switcher.QueryAll(selector)
	if err != nil {
		return nil, err
	}

	var byName browser.Element
	for i, el := range candidates {
		v, err := value(el, i)
		if err != nil {
			return nil, err
		}
		if v == card.Value {
			return el, nil
		}
		if byName == nil {
			if text, err := trimmedText(el); err == nil && text == card.Name {
				byName = el
			}
		}
	}
	if byName != nil {
		return byName, nil
	}
	return card.Ref, nil
}
