package main

import (
	"fmt"
	"strings"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
)

// Scope says where a target's candidates are probed.
type Scope int

const (
	ScopePage Scope = iota
	ScopeContainer
	ScopeOfferCard
)

// target is one logical element of the offers page and the selectors that
// might locate it.
type target struct {
	Name  string
	Scope Scope
	// Extra candidates probed after the configured chain.
	Extra []string
	get   func(*offers.SelectorConfig) (string, []string)
	set   func(*offers.SelectorConfig, string, []string)
}

var targets = []target{
	{
		Name:  "card switcher",
		Scope: ScopePage,
		Extra: []string{`select[name*="account"]`, `select[id*="account"]`, `#accountSelector`, `.account-selector`, `[data-card-selector]`},
		get:   func(c *offers.SelectorConfig) (string, []string) { return c.Cards.Switcher, c.Cards.SwitcherFallbacks },
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Cards.Switcher, c.Cards.SwitcherFallbacks = p, f
		},
	},
	{
		Name:  "offers container",
		Scope: ScopePage,
		Extra: []string{`[data-testid*="offers"]`},
		get:   func(c *offers.SelectorConfig) (string, []string) { return c.Offers.Container, c.Offers.ContainerFallbacks },
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Offers.Container, c.Offers.ContainerFallbacks = p, f
		},
	},
	{
		Name:  "offer card",
		Scope: ScopeContainer,
		Extra: []string{`[class*="offerCard"]`, `[role="article"]`, `[data-offer-id]`},
		get:   func(c *offers.SelectorConfig) (string, []string) { return c.Offers.Card, c.Offers.CardFallbacks },
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Offers.Card, c.Offers.CardFallbacks = p, f
		},
	},
	{
		Name:  "merchant name",
		Scope: ScopeOfferCard,
		Extra: []string{`[class*="merchant"]`, `[data-testid*="merchant"]`, `[class*="title"]`},
		get: func(c *offers.SelectorConfig) (string, []string) {
			return c.Offers.MerchantName, c.Offers.MerchantNameFallbacks
		},
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Offers.MerchantName, c.Offers.MerchantNameFallbacks = p, f
		},
	},
	{
		Name:  "add button",
		Scope: ScopeOfferCard,
		Extra: []string{`button[title*="Add"]`, `[data-testid*="add"]`},
		get:   func(c *offers.SelectorConfig) (string, []string) { return c.Offers.AddButton, c.Offers.AddButtonFallbacks },
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Offers.AddButton, c.Offers.AddButtonFallbacks = p, f
		},
	},
	{
		Name:  "already added",
		Scope: ScopeOfferCard,
		Extra: []string{`[class*="added"]`, `[data-testid*="added"]`, `[class*="enrolled"]`},
		get: func(c *offers.SelectorConfig) (string, []string) {
			return c.Offers.AlreadyAdded, c.Offers.AlreadyAddedFallbacks
		},
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Offers.AlreadyAdded, c.Offers.AlreadyAddedFallbacks = p, f
		},
	},
	{
		Name:  "success feedback",
		Scope: ScopePage,
		Extra: []string{`[aria-live="polite"]`, `[aria-live="assertive"]`, `[class*="toast"]`, `.alert-success`, `[data-testid*="success"]`},
		get:   func(c *offers.SelectorConfig) (string, []string) { return c.Feedback.Success, c.Feedback.SuccessFallbacks },
		set: func(c *offers.SelectorConfig, p string, f []string) {
			c.Feedback.Success, c.Feedback.SuccessFallbacks = p, f
		},
	},
}

// Probe is one candidate tried against the page.
type Probe struct {
	Target   string
	Selector string
	// Matches counts elements for page and container scope, and offer cards
	// containing a match for offer-card scope.
	Matches int
}

// Analysis is the outcome of probing every target.
type Analysis struct {
	Selectors offers.SelectorConfig
	Probes    []Probe
	// Missing lists targets no candidate matched; they keep the base chain.
	Missing []string
}

// analyze probes doc for every target and returns base with each chain
// reordered so matching candidates come first.
func analyze(doc browser.Document, base offers.SelectorConfig) (*Analysis, error) {
	a := &Analysis{Selectors: base}
	var container browser.Element
	var cards []browser.Element

	for _, t := range targets {
		primary, fallbacks := t.get(&a.Selectors)
		candidates := dedupe(append(append([]string{primary}, fallbacks...), t.Extra...))

		var hits, misses []string
		for _, sel := range candidates {
			n, first, err := t.probe(doc, container, cards, sel)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", t.Name, sel, err)
			}
			a.Probes = append(a.Probes, Probe{Target: t.Name, Selector: sel, Matches: n})

			if n == 0 {
				misses = append(misses, sel)
				continue
			}
			if len(hits) == 0 {
				switch t.Name {
				case "offers container":
					container = first
				case "offer card":
					cards, err = container.QueryAll(sel)
					if err != nil {
						return nil, err
					}
				case "card switcher":
					kind, err := switcherKind(first)
					if err != nil {
						return nil, err
					}
					if kind != "" {
						a.Selectors.Cards.SwitcherType = kind
					}
				}
			}
			hits = append(hits, sel)
		}

		if len(hits) == 0 {
			a.Missing = append(a.Missing, t.Name)
			continue
		}
		ordered := append(hits, misses...)
		t.set(&a.Selectors, ordered[0], ordered[1:])
	}

	return a, nil
}

// probe returns the match count for sel and the first page or container
// match.
func (t target) probe(doc browser.Document, container browser.Element, cards []browser.Element, sel string) (int, browser.Element, error) {
	switch t.Scope {
	case ScopeContainer:
		if container == nil {
			return 0, nil, nil
		}
		return count(container.QueryAll(sel))
	case ScopeOfferCard:
		n := 0
		for _, card := range cards {
			el, err := card.Query(sel)
			if err != nil {
				return 0, nil, nil
			}
			if el != nil {
				n++
			}
		}
		return n, nil, nil
	default:
		return count(doc.QueryAll(sel))
	}
}

// count treats an invalid selector as no match.
func count(els []browser.Element, err error) (int, browser.Element, error) {
	if err != nil || len(els) == 0 {
		return 0, nil, nil
	}
	return len(els), els[0], nil
}

func switcherKind(el browser.Element) (offers.SwitcherKind, error) {
	tag, err := el.TagName()
	if err != nil {
		return "", err
	}
	if tag == "SELECT" {
		return offers.SwitcherSelect, nil
	}
	role, _, err := el.Attr("role")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(role) {
	case "combobox":
		return offers.SwitcherCombobox, nil
	case "tablist":
		return offers.SwitcherTabs, nil
	}
	return "", nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
