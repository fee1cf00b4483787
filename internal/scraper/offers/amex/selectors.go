package amex

import "github.com/grez-lucas/amex-offers/internal/scraper/offers"

// Pages
const (
	OffersURL        = "https://global.americanexpress.com/offers"
	OffersURLPattern = "global.americanexpress.com/offers"
	LoginURL         = "https://www.americanexpress.com/en-us/account/login"
)

// CSS Selectors for the Amex login form
const (
	SelectorUserInput     = "input#eliloUserID"
	SelectorPasswordInput = "input#eliloPassword"
	SelectorLoginButton   = "button#loginSubmit"
)

// Combobox dropdown parts. The listbox is rendered outside the switcher,
// so these are queried on the document.
var (
	listboxSelectors = []string{`[role="listbox"]`, `[role="menu"]`, `.account-selector-menu`}
	optionSelectors  = []string{`[role="option"]`, `li`, `a`}
)

// DefaultSelectors returns the selectors for the current offers page layout.
// The card switcher is a combobox whose options link to
// ?account_key=<hex>.
func DefaultSelectors() offers.SelectorConfig {
	return offers.SelectorConfig{
		Cards: offers.CardSelectors{
			Switcher:     `[role="combobox"]`,
			SwitcherType: offers.SwitcherCombobox,
			SwitcherFallbacks: []string{
				`select[data-testid="card-selector"]`,
				`select.card-switcher`,
				`[role="tablist"]`,
				`.card-selector`,
			},
		},
		Offers: offers.OfferSelectors{
			Container: `[data-testid="offers-container"]`,
			ContainerFallbacks: []string{
				`.offers-list`,
				`#offers-container`,
				`[role="list"]`,
				`main`,
				`.main-content`,
			},
			Card: `[data-testid="offer-card"]`,
			CardFallbacks: []string{
				`.offer-card`,
				`.offer-item`,
				`[role="listitem"]`,
				`[class*="offer"]`,
			},
			MerchantName: `[data-testid="merchant-name"]`,
			MerchantNameFallbacks: []string{
				`.merchant-name`,
				`.offer-merchant`,
				`h3`,
				`h4`,
			},
			AddButton: `button[data-testid="add-offer"]`,
			AddButtonFallbacks: []string{
				`button.add-offer`,
				`button[aria-label*="Add"]`,
			},
			AlreadyAdded: `[data-testid="offer-added"]`,
			AlreadyAddedFallbacks: []string{
				`.offer-added`,
				`button[disabled]`,
				`[aria-label*="Added"]`,
			},
		},
		Feedback: offers.FeedbackSelectors{
			Success: `[data-testid="success-notification"]`,
			SuccessFallbacks: []string{
				`.success-message`,
				`[role="alert"]`,
				`.notification`,
			},
		},
		Timing: offers.Timing{
			BetweenOffers:   offers.DefaultBetweenOffers,
			AfterCardSwitch: offers.DefaultAfterCardSwitch,
			WaitForLoad:     offers.DefaultWaitForLoad,
			PollingInterval: offers.DefaultPollingInterval,
			MaxWait:         offers.DefaultMaxWait,
			SuccessWait:     offers.DefaultSuccessWait,
			ComboboxSettle:  offers.DefaultComboboxSettle,
			DismissSettle:   offers.DefaultDismissSettle,
			PausePoll:       offers.DefaultPausePoll,
		},
	}
}
