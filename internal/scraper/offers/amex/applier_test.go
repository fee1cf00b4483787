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

const singleOffer = `<body><section data-testid="offers-container">
	<div data-testid="offer-card">
		<span data-testid="merchant-name">Amazon</span>
		<button data-testid="add-offer">Add to Card</button>
	</div>
</section></body>`

var goldCard = offers.Card{Name: "Gold Card", Value: "G1", AccountKey: "G1"}

func scanOne(t *testing.T, doc browser.Document) offers.Offer {
	t.Helper()
	found := newScanner(doc, testSelectors()).Scan(context.Background())
	require.Len(t, found, 1)
	return found[0]
}

func newApplier(doc browser.Document) *OfferApplier {
	return NewOfferApplier(doc, testSelectors(), zerolog.Nop())
}

func TestApply_SuccessWhenControlDisables(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	doc.On(browser.EventClick, `[data-testid="add-offer"]`, func(_ *browser.StaticDocument, target *goquery.Selection) {
		target.SetAttr("disabled", "")
	})
	offer := scanOne(t, doc)

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusSuccess, res.Status)
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, "Gold Card", res.CardName)
	assert.Equal(t, "Amazon", res.Merchant)
	assert.False(t, res.Timestamp.IsZero())
}

func TestApply_SuccessOnFeedbackElement(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	doc.On(browser.EventClick, `[data-testid="add-offer"]`, func(d *browser.StaticDocument, _ *goquery.Selection) {
		d.Find("body").AppendHtml(`<div data-testid="success-notification">Offer added to card</div>`)
	})
	offer := scanOne(t, doc)

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusSuccess, res.Status)
}

func TestApply_SuccessOnAriaDisabled(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	doc.On(browser.EventClick, `[data-testid="add-offer"]`, func(_ *browser.StaticDocument, target *goquery.Selection) {
		target.SetAttr("aria-disabled", "true")
	})
	offer := scanOne(t, doc)

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusSuccess, res.Status)
}

func TestApply_SuccessOnAddedIndicator(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	doc.On(browser.EventClick, `[data-testid="add-offer"]`, func(_ *browser.StaticDocument, target *goquery.Selection) {
		target.Parent().AppendHtml(`<span class="offer-added">Added</span>`)
	})
	offer := scanOne(t, doc)

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusSuccess, res.Status)
}

func TestApply_UncertainWhenNothingChanges(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	offer := scanOne(t, doc)

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusUncertain, res.Status)
	assert.False(t, res.Success)
	assert.Equal(t, "No success indicator found, but no error occurred", res.Error)
	assert.Len(t, doc.Events(browser.EventClick), 1)
}

func TestApply_DisabledControlIsError(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	offer := scanOne(t, doc)
	doc.Find(`[data-testid="add-offer"]`).SetAttr("disabled", "")

	res := newApplier(doc).Apply(context.Background(), offer, goldCard)

	assert.Equal(t, offers.StatusError, res.Status)
	assert.Equal(t, "Add button is disabled", res.Error)
	assert.Empty(t, doc.Events(browser.EventClick))
}

func TestApply_MissingInputs(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)
	offer := scanOne(t, doc)

	tests := []struct {
		name  string
		offer offers.Offer
		card  offers.Card
		want  string
	}{
		{"no control", offers.Offer{Merchant: "Amazon"}, goldCard, "missing add control"},
		{"no card name", offer, offers.Card{Value: "G1"}, "missing card name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newApplier(doc).Apply(context.Background(), tt.offer, tt.card)

			assert.Equal(t, offers.StatusError, res.Status)
			assert.Equal(t, tt.want, res.Error)
		})
	}
	assert.Empty(t, doc.Events(browser.EventClick))
}

func TestApply_ClickErrorIsError(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)

	res := newApplier(doc).Apply(context.Background(), offers.Offer{Merchant: "Amazon", AddControl: failingElement{}}, goldCard)

	assert.Equal(t, offers.StatusError, res.Status)
	assert.Contains(t, res.Error, "detached")
}

func TestApply_PanicBecomesErrorResult(t *testing.T) {
	doc, err := browser.NewStaticDocument(singleOffer)
	require.NoError(t, err)

	res := newApplier(doc).Apply(context.Background(), offers.Offer{Merchant: "Amazon", AddControl: panickingElement{}}, goldCard)

	assert.Equal(t, offers.StatusError, res.Status)
	assert.Equal(t, "boom", res.Error)
	assert.Equal(t, "Amazon", res.Merchant)
}

// Status and Success always agree, whatever the outcome.
func TestApply_StatusTrichotomy(t *testing.T) {
	cases := map[string]func(*browser.StaticDocument){
		"success": func(doc *browser.StaticDocument) {
			doc.On(browser.EventClick, "button", func(_ *browser.StaticDocument, s *goquery.Selection) { s.SetAttr("disabled", "") })
		},
		"uncertain": func(*browser.StaticDocument) {},
		"error": func(doc *browser.StaticDocument) {
			doc.Find("button").SetAttr("disabled", "")
		},
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			doc := testutil.LoadDocument(t, "amex", "offers_select")
			found := newScanner(doc, testSelectors()).Scan(context.Background())
			require.NotEmpty(t, found)
			setup(doc)

			res := newApplier(doc).Apply(context.Background(), found[0], goldCard)

			assert.Equal(t, string(res.Status), name)
			assert.Equal(t, res.Status == offers.StatusSuccess, res.Success)
			if res.Success {
				assert.Empty(t, res.Error)
			} else {
				assert.NotEmpty(t, res.Error)
			}
		})
	}
}
