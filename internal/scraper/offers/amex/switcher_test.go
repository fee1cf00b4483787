package amex

import (
	"context"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSwitcher(doc browser.Document, sel offers.SelectorConfig) *CardSwitcher {
	log := zerolog.Nop()
	return NewCardSwitcher(doc, sel, NewResolver(doc, sel.Timing, log), log)
}

func TestSwitchTo_Select(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_select")
	sel := testSelectors()
	cards := newCatalog(doc, sel).Discover(context.Background())
	require.Len(t, cards, 2)

	ok := newSwitcher(doc, sel).SwitchTo(context.Background(), cards[1])

	assert.True(t, ok)
	changes := doc.Events(browser.EventChange)
	require.Len(t, changes, 1)
	assert.Equal(t, "B2", changes[0].Value)
	assert.Len(t, doc.Events(browser.EventInput), 1)

	s, err := doc.Query(`select[data-testid="card-selector"]`)
	require.NoError(t, err)
	v, _ := s.Value()
	assert.Equal(t, "B2", v)
}

func TestSwitchTo_SelectByTagWithoutKind(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_select")

	ok := newSwitcher(doc, testSelectors()).SwitchTo(context.Background(), offers.Card{Name: "Gold Card", Value: "B2"})

	assert.True(t, ok)
	require.Len(t, doc.Events(browser.EventChange), 1)
}

func TestSwitchTo_ComboboxRelocatesOption(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_combobox")
	sel := testSelectors()
	cards := newCatalog(doc, sel).Discover(context.Background())
	require.Len(t, cards, 3)

	ok := newSwitcher(doc, sel).SwitchTo(context.Background(), cards[1])

	assert.True(t, ok)
	clicks := doc.Events(browser.EventClick)
	// discovery open, switch open, option
	require.Len(t, clicks, 3)
	assert.Equal(t, "Gold Card ••2001", clicks[2].Text)
}

func TestSwitchTo_ComboboxOptionGoneIsFalse(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_combobox")
	sel := testSelectors()
	cards := newCatalog(doc, sel).Discover(context.Background())
	require.Len(t, cards, 3)

	card := cards[1]
	card.Name = "Closed Account"
	card.AccountKey = "DEADBEEF"
	ok := newSwitcher(doc, sel).SwitchTo(context.Background(), card)

	assert.False(t, ok)
	clicks := doc.Events(browser.EventClick)
	// discovery open, switch open; the stored option is never clicked
	require.Len(t, clicks, 2)
	assert.Len(t, doc.Events(browser.EventDismiss), 2)
}

func TestSwitchTo_Tabs(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_tabs")
	sel := testSelectors()
	cards := newCatalog(doc, sel).Discover(context.Background())
	require.Len(t, cards, 3)

	var clicked string
	doc.On(browser.EventClick, `[role="tab"]`, func(_ *browser.StaticDocument, target *goquery.Selection) {
		clicked = target.Text()
	})

	ok := newSwitcher(doc, sel).SwitchTo(context.Background(), cards[2])

	assert.True(t, ok)
	assert.Equal(t, "Delta SkyMiles", clicked)
}

func TestSwitchTo_TabsMatchesByNameWhenValueChanged(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_tabs")

	card := offers.Card{Name: "Gold Card", Value: "stale-value", Kind: offers.SwitcherTabs}
	ok := newSwitcher(doc, testSelectors()).SwitchTo(context.Background(), card)

	assert.True(t, ok)
	clicks := doc.Events(browser.EventClick)
	require.Len(t, clicks, 1)
	assert.Equal(t, "Gold Card", clicks[0].Text)
}

func TestSwitchTo_SyntheticCardClicksNothing(t *testing.T) {
	doc := testutil.LoadDocument(t, "amex", "offers_combobox")

	card := offers.Card{Name: "Blue Cash", Value: "default", Kind: offers.SwitcherCombobox, Synthetic: true}
	ok := newSwitcher(doc, testSelectors()).SwitchTo(context.Background(), card)

	assert.True(t, ok)
	assert.Empty(t, doc.Events(browser.EventClick))
}

func TestSwitchTo_NoSwitcher(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body><section data-testid="offers-container"></section></body>`)
	require.NoError(t, err)

	ok := newSwitcher(doc, testSelectors()).SwitchTo(context.Background(), offers.Card{Name: "Gold", Value: "G"})

	assert.False(t, ok)
}

func TestSwitchTo_OffersNeverLoad(t *testing.T) {
	doc, err := browser.NewStaticDocument(`<body>
		<select data-testid="card-selector"><option value="A">Gold Card</option><option value="B">Green Card</option></select>
	</body>`)
	require.NoError(t, err)

	ok := newSwitcher(doc, testSelectors()).SwitchTo(context.Background(), offers.Card{Name: "Green Card", Value: "B", Kind: offers.SwitcherSelect})

	assert.False(t, ok)
}

func TestSwitchTo_PanicIsFalse(t *testing.T) {
	static, err := browser.NewStaticDocument(`<body><select data-testid="card-selector"></select></body>`)
	require.NoError(t, err)

	ok := newSwitcher(&panickingDoc{StaticDocument: static}, testSelectors()).SwitchTo(context.Background(), offers.Card{Name: "Gold", Value: "G"})

	assert.False(t, ok)
}
