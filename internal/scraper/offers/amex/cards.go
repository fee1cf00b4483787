package amex

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

var accountKeyRe = regexp.MustCompile(`account_key=([A-Fa-f0-9]+)`)

// minCardLabel is the shortest visible label accepted for button and
// combobox cards; shorter labels are icons or separators. Tabs only need a
// non-empty label.
const minCardLabel = 3

// CardCatalog enumerates the cards offered by the page's card switcher.
type CardCatalog struct {
	doc       browser.Document
	selectors offers.SelectorConfig
	resolver  *Resolver
	logger    zerolog.Logger
}

func NewCardCatalog(doc browser.Document, selectors offers.SelectorConfig, resolver *Resolver, logger zerolog.Logger) *CardCatalog {
	return &CardCatalog{
		doc:       doc,
		selectors: selectors,
		resolver:  resolver,
		logger:    logger.With().Str("component", "cards").Logger(),
	}
}

// Discover returns the cards available on the page. It never fails: a
// missing switcher or any DOM error yields an empty list.
func (c *CardCatalog) Discover(ctx context.Context) (cards []offers.Card) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("card discovery panicked")
			cards = []offers.Card{}
		}
	}()

	switcher, err := c.resolver.ResolveChain(ctx, c.selectors.Cards.Switcher, c.selectors.Cards.SwitcherFallbacks, 0)
	if err != nil {
		c.logger.Error().Err(err).Msg("card switcher not found")
		return []offers.Card{}
	}

	kind, err := c.classify(switcher)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to inspect card switcher")
		return []offers.Card{}
	}
	c.logger.Debug().Str("kind", string(kind)).Msg("card switcher found")

	switch kind {
	case offers.SwitcherCombobox:
		cards, err = c.fromCombobox(ctx, switcher)
	case offers.SwitcherSelect:
		cards, err = c.fromSelect(switcher)
	case offers.SwitcherTabs:
		cards, err = c.fromTabs(switcher)
	case offers.SwitcherButtons:
		cards, err = c.fromButtons(switcher)
	}

	// The declared type did not match what is on the page.
	if err == nil && len(cards) == 0 && kind != offers.SwitcherCombobox {
		c.logger.Debug().Str("kind", string(kind)).Msg("no cards for switcher type, auto-detecting")
		cards, err = c.autoDetect(switcher)
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("error detecting cards")
		return []offers.Card{}
	}

	valid := cards[:0]
	for _, card := range cards {
		if card.Valid() {
			valid = append(valid, card)
		}
	}

	c.logger.Info().Int("count", len(valid)).Msg("detected cards")
	return valid
}

// classify decides how to enumerate the switcher. What the element is wins
// over the configured type.
func (c *CardCatalog) classify(switcher browser.Element) (offers.SwitcherKind, error) {
	tag, err := switcher.TagName()
	if err != nil {
		return "", err
	}
	role, _, err := switcher.Attr("role")
	if err != nil {
		return "", err
	}

	switch {
	case tag == "SELECT":
		return offers.SwitcherSelect, nil
	case role == "combobox":
		return offers.SwitcherCombobox, nil
	case role == "tablist":
		return offers.SwitcherTabs, nil
	}

	switch declared := c.selectors.Cards.SwitcherType; declared {
	case offers.SwitcherSelect, offers.SwitcherTabs, offers.SwitcherButtons, offers.SwitcherCombobox:
		return declared, nil
	}
	return "", nil
}

func (c *CardCatalog) autoDetect(switcher browser.Element) ([]offers.Card, error) {
	if sel, err := switcher.Query("select"); err != nil {
		return nil, err
	} else if sel != nil {
		return c.fromSelect(sel)
	}

	tabs, err := switcher.QueryAll(`[role="tab"]`)
	if err != nil {
		return nil, err
	}
	if len(tabs) > 0 {
		return c.fromTabs(switcher)
	}
	return c.fromButtons(switcher)
}

func (c *CardCatalog) fromSelect(switcher browser.Element) ([]offers.Card, error) {
	options, err := switcher.QueryAll("option")
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Int("options", len(options)).Msg("card options in select")

	cards := []offers.Card{}
	for i, opt := range options {
		value, err := opt.Value()
		if err != nil {
			return nil, err
		}
		text, err := trimmedText(opt)
		if err != nil {
			return nil, err
		}
		// Skip the "Select a card" placeholder.
		if value == "" || text == "" || strings.Contains(strings.ToLower(text), "select") {
			continue
		}

		cards = append(cards, offers.Card{
			Name:       text,
			Value:      value,
			AccountKey: value,
			Index:      i,
			Kind:       offers.SwitcherSelect,
			Ref:        opt,
		})
	}
	return cards, nil
}

func (c *CardCatalog) fromTabs(switcher browser.Element) ([]offers.Card, error) {
	tabs, err := switcher.QueryAll(`[role="tab"]`)
	if err != nil {
		return nil, err
	}

	cards := []offers.Card{}
	for i, tab := range tabs {
		text, err := trimmedText(tab)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}

		value, err := tabValue(tab, i)
		if err != nil {
			return nil, err
		}
		key, err := firstAttr(tab, "data-account-key")
		if err != nil {
			return nil, err
		}
		if key == "" {
			key = value
		}

		cards = append(cards, offers.Card{
			Name:       text,
			Value:      value,
			AccountKey: key,
			Index:      i,
			Kind:       offers.SwitcherTabs,
			Ref:        tab,
		})
	}
	return cards, nil
}

func (c *CardCatalog) fromButtons(switcher browser.Element) ([]offers.Card, error) {
	buttons, err := switcher.QueryAll("button")
	if err != nil {
		return nil, err
	}

	cards := []offers.Card{}
	for i, btn := range buttons {
		text, err := trimmedText(btn)
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(text) < minCardLabel {
			continue
		}

		value, err := buttonValue(btn, i)
		if err != nil {
			return nil, err
		}

		cards = append(cards, offers.Card{
			Name:       text,
			Value:      value,
			AccountKey: value,
			Index:      i,
			Kind:       offers.SwitcherButtons,
			Ref:        btn,
		})
	}
	return cards, nil
}

// fromCombobox opens the dropdown, reads its options and closes it again.
// When no dropdown appears the card currently shown is returned on its own.
func (c *CardCatalog) fromCombobox(ctx context.Context, switcher browser.Element) ([]offers.Card, error) {
	options, err := openCombobox(ctx, c.doc, switcher, c.selectors.Timing, c.logger)
	if err != nil {
		return nil, err
	}
	if options == nil {
		c.logger.Warn().Msg("combobox did not open a listbox, using the current card only")
		return c.currentCard(switcher)
	}
	defer closeCombobox(ctx, c.doc, c.selectors.Timing, c.logger)

	c.logger.Debug().Int("options", len(options)).Msg("card options in dropdown")

	cards := []offers.Card{}
	for i, opt := range options {
		text, err := trimmedText(opt)
		if err != nil {
			return nil, err
		}
		if utf8.RuneCountInString(text) < minCardLabel {
			continue
		}

		key, err := optionAccountKey(opt, i)
		if err != nil {
			return nil, err
		}

		cards = append(cards, offers.Card{
			Name:       text,
			Value:      key,
			AccountKey: key,
			Index:      i,
			Kind:       offers.SwitcherCombobox,
			Ref:        opt,
		})
		c.logger.Debug().Str("card", text).Str("account_key", key).Msg("card option")
	}
	return cards, nil
}

// currentCard builds the single card shown in a combobox that could not be
// expanded. The account key comes from the page URL when present.
func (c *CardCatalog) currentCard(switcher browser.Element) ([]offers.Card, error) {
	text, err := trimmedText(switcher)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return []offers.Card{}, nil
	}

	key := "default"
	if u, err := c.doc.URL(); err == nil {
		if m := accountKeyRe.FindStringSubmatch(u); m != nil {
			key = m[1]
		}
	}

	return []offers.Card{{
		Name:       text,
		Value:      key,
		AccountKey: key,
		Kind:       offers.SwitcherCombobox,
		Synthetic:  true,
		Ref:        switcher,
	}}, nil
}

// openCombobox clicks the switcher and returns the options of the listbox it
// opens, or nil when none appears.
func openCombobox(ctx context.Context, doc browser.Document, switcher browser.Element, timing offers.Timing, logger zerolog.Logger) ([]browser.Element, error) {
	if err := switcher.Click(); err != nil {
		return nil, fmt.Errorf("open card switcher: %w", err)
	}
	if err := sleep(ctx, timing.ComboboxSettleDelay()); err != nil {
		return nil, err
	}

	listbox, ok, err := firstAccepted(listboxSelectors, firstElementIn(doc, logger))
	if err != nil || !ok {
		return nil, err
	}

	options, _, err := firstAccepted(optionSelectors, allIn(listbox, logger))
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []browser.Element{}
	}
	return options, nil
}

func closeCombobox(ctx context.Context, doc browser.Document, timing offers.Timing, logger zerolog.Logger) {
	if err := doc.Dismiss(); err != nil {
		logger.Debug().Err(err).Msg("failed to dismiss dropdown")
	}
	_ = sleep(ctx, timing.DismissSettleDelay())
}

// optionAccountKey reads the account key from the option's link, then from
// data attributes, then falls back to a positional id.
func optionAccountKey(opt browser.Element, index int) (string, error) {
	href, err := firstAttr(opt, "href")
	if err != nil {
		return "", err
	}
	if href == "" {
		if link, err := opt.Query("a[href]"); err == nil && link != nil {
			if href, err = firstAttr(link, "href"); err != nil {
				return "", err
			}
		}
	}
	if m := accountKeyRe.FindStringSubmatch(href); m != nil {
		return m[1], nil
	}

	key, err := firstAttr(opt, "data-account-key", "data-value")
	if err != nil || key != "" {
		return key, err
	}
	return fmt.Sprintf("card-%d", index), nil
}

func tabValue(tab browser.Element, index int) (string, error) {
	v, err := firstAttr(tab, "data-value", "aria-controls", "id")
	if err != nil || v != "" {
		return v, err
	}
	return fmt.Sprintf("tab-%d", index), nil
}

func buttonValue(btn browser.Element, index int) (string, error) {
	v, err := firstAttr(btn, "data-value", "value", "aria-controls", "id")
	if err != nil || v != "" {
		return v, err
	}
	return fmt.Sprintf("button-%d", index), nil
}

// firstAttr returns the first non-empty attribute among names.
func firstAttr(el browser.Element, names ...string) (string, error) {
	for _, name := range names {
		v, ok, err := el.Attr(name)
		if err != nil {
			return "", err
		}
		if ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

func trimmedText(el browser.Element) (string, error) {
	text, err := el.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
