package amex

import (
	"context"
	"testing"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSelectors returns the default selectors with unit-test timing.
func testSelectors() offers.SelectorConfig {
	sel := DefaultSelectors()
	sel.Timing = testutil.FastTiming()
	return sel
}

func newCatalog(doc browser.Document, sel offers.SelectorConfig) *CardCatalog {
	log := zerolog.Nop()
	return NewCardCatalog(doc, sel, NewResolver(doc, sel.Timing, log), log)
}

func cardNames(cards []offers.Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name
	}
	return names
}

func TestDiscover_Combobox(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_combobox")

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 3)
	assert.Equal(t, []string{"Blue Cash Everyday ••1005", "Gold Card ••2001", "Platinum Card ••3009"}, cardNames(cards))

	assert.Equal(t, "A1B2C3D4E5", cards[0].AccountKey)
	assert.Equal(t, "A1B2C3D4E5", cards[0].Value)
	assert.Equal(t, "0F9E8D7C6B", cards[1].AccountKey)
	assert.Equal(t, "FFEE0011", cards[2].AccountKey)
	assert.Equal(t, 2, cards[2].Index)
	for _, c := range cards {
		assert.Equal(t, offers.SwitcherCombobox, c.Kind)
		assert.True(t, c.Valid())
		assert.False(t, c.Synthetic)
	}

	// Dropdown opened then closed.
	assert.Len(t, doc.Events(browser.EventClick), 1)
	assert.Len(t, doc.Events(browser.EventDismiss), 1)
}

func TestDiscover_ComboboxPositionalFallbackKey(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body>
		<div role="combobox">Green Card</div>
		<div role="menu"><a>Green Card</a><a>Hilton Honors</a></div>
		<section data-testid="offers-container"></section>
	</body>`)
	require.NoError(t, err)

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 2)
	assert.Equal(t, "card-0", cards[0].AccountKey)
	assert.Equal(t, "card-1", cards[1].AccountKey)
}

func TestDiscover_ComboboxWithoutListboxUsesCurrentCard(t *testing.T) {
	doc, err := browser.NewStaticDocument(
		`<body><div role="combobox"> Delta Reserve </div></body>`,
		browser.WithURL("https://global.americanexpress.com/offers?account_key=ABCDEF0123"),
	)
	require.NoError(t, err)

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 1)
	assert.Equal(t, "Delta Reserve", cards[0].Name)
	assert.Equal(t, "ABCDEF0123", cards[0].AccountKey)
	assert.True(t, cards[0].Synthetic)
	assert.Empty(t, doc.Events(browser.EventDismiss))
}

func TestDiscover_ComboboxWithoutListboxDefaultKey(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><div role="combobox">Delta Reserve</div></body>`)
	require.NoError(t, err)

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 1)
	assert.Equal(t, "default", cards[0].AccountKey)
}

func TestDiscover_Select(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_select")

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 2)
	assert.Equal(t, []string{"Blue Cash Everyday", "Gold Card"}, cardNames(cards))
	assert.Equal(t, "A1", cards[0].Value)
	assert.Equal(t, "B2", cards[1].AccountKey)
	assert.Equal(t, 1, cards[0].Index)
	assert.Equal(t, offers.SwitcherSelect, cards[0].Kind)
}

func TestDiscover_Tabs(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_tabs")

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	require.Len(t, cards, 3)
	assert.Equal(t, []string{"Blue Cash", "Gold Card", "Delta SkyMiles"}, cardNames(cards))

	assert.Equal(t, "card-blue", cards[0].Value)
	assert.Equal(t, "AB12", cards[0].AccountKey)
	assert.Equal(t, "panel-gold", cards[1].Value)
	assert.Equal(t, "panel-gold", cards[1].AccountKey)
	assert.Equal(t, "tab-2", cards[2].Value)
	assert.Equal(t, offers.SwitcherTabs, cards[2].Kind)
}

func TestDiscover_TabsKeepShortLabels(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><div role="tablist">
		<button role="tab">Gold Card</button>
		<button role="tab">AB</button>
		<button role="tab">X</button>
		<button role="tab">   </button>
	</div></body>`)
	require.NoError(t, err)

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	assert.Equal(t, []string{"Gold Card", "AB", "X"}, cardNames(cards))
}

func TestDiscover_Buttons(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><div class="card-selector">
		<button data-value="gold">Gold Card</button>
		<button value="plat">Platinum</button>
		<button>Green Card</button>
		<button>OK</button>
	</div></body>`)
	require.NoError(t, err)
	sel := testSelectors()
	sel.Cards.SwitcherType = offers.SwitcherButtons

	cards := newCatalog(doc, sel).Discover(context.Background())

	require.Len(t, cards, 3)
	assert.Equal(t, "gold", cards[0].Value)
	assert.Equal(t, "plat", cards[1].Value)
	assert.Equal(t, "button-2", cards[2].Value)
	assert.Equal(t, offers.SwitcherButtons, cards[2].Kind)
}

func TestDiscover_AutoDetectsNestedSelect(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><div class="card-selector">
		<label>Card</label>
		<select><option value="X9">Hilton Honors</option></select>
	</div></body>`)
	require.NoError(t, err)
	sel := testSelectors()
	sel.Cards.SwitcherType = offers.SwitcherTabs

	cards := newCatalog(doc, sel).Discover(context.Background())

	require.Len(t, cards, 1)
	assert.Equal(t, "Hilton Honors", cards[0].Name)
	assert.Equal(t, offers.SwitcherSelect, cards[0].Kind)
}

func TestDiscover_NoSwitcher(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><p>Log in</p></body>`)
	require.NoError(t, err)

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestDiscover_DOMErrorYieldsEmpty(t *testing.T) {
	static, err := browser.NewStaticDocument(`<body><select data-testid="card-selector"><option value="A">Gold Card</option></select></body>`)
	require.NoError(t, err)
	doc := &brokenDoc{StaticDocument: static}

	cards := newCatalog(doc, testSelectors()).Discover(context.Background())

	assert.Empty(t, cards)
}
