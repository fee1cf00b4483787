package amex

import (
	"context"
	"fmt"
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

const uncertainMessage = "No success indicator found, but no error occurred"

// OfferApplier clicks an offer's add control and judges the outcome.
type OfferApplier struct {
	doc       browser.Document
	selectors offers.SelectorConfig
	logger    zerolog.Logger
}

func NewOfferApplier(doc browser.Document, selectors offers.SelectorConfig, logger zerolog.Logger) *OfferApplier {
	return &OfferApplier{
		doc:       doc,
		selectors: selectors,
		logger:    logger.With().Str("component", "applier").Logger(),
	}
}

// Apply adds offer to card. It always returns a Result: success when the page
// confirms the add, uncertain when nothing went wrong but nothing confirmed
// it either, error otherwise.
func (a *OfferApplier) Apply(ctx context.Context, offer offers.Offer, card offers.Card) (result offers.Result) {
	log := a.logger.With().Str("card", card.Name).Str("merchant", offer.Merchant).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("apply panicked")
			result = offers.NewResult(card, offer, offers.StatusError, fmt.Sprint(r))
		}
	}()

	fail := func(err error) offers.Result {
		log.Error().Err(err).Msg("failed to add offer")
		return offers.NewResult(card, offer, offers.StatusError, err.Error())
	}

	if offer.AddControl == nil {
		return fail(offers.ErrMissingAddControl)
	}
	if card.Name == "" {
		return fail(offers.ErrMissingCardName)
	}

	disabled, err := offer.AddControl.Disabled()
	if err != nil {
		return fail(err)
	}
	if disabled {
		return fail(offers.ErrAddButtonDisabled)
	}

	if err := offer.AddControl.Click(); err != nil {
		return fail(fmt.Errorf("click add: %w", err))
	}

	// An interrupted wait still checks the page once.
	_ = sleep(ctx, a.selectors.Timing.BetweenOffersDelay())

	confirmed, signal, err := a.confirm(ctx, offer)
	if err != nil {
		return fail(err)
	}
	if confirmed {
		log.Info().Str("signal", signal).Msg("offer added")
		return offers.NewResult(card, offer, offers.StatusSuccess, "")
	}

	log.Warn().Msg(uncertainMessage)
	return offers.NewResult(card, offer, offers.StatusUncertain, uncertainMessage)
}

// confirm polls for any of the success signals until timing.success_wait
// elapses: a feedback element, the add control turning disabled, or an
// already-added indicator in the offer card. The signals are heuristics and
// can fire for unrelated page notices.
func (a *OfferApplier) confirm(ctx context.Context, offer offers.Offer) (bool, string, error) {
	timing := a.selectors.Timing.WithDefaults()
	deadline := time.Now().Add(timing.SuccessTimeout())

	feedback := chain(a.selectors.Feedback.Success, a.selectors.Feedback.SuccessFallbacks)
	added := chain(a.selectors.Offers.AlreadyAdded, a.selectors.Offers.AlreadyAddedFallbacks)

	for {
		if _, ok, err := firstAccepted(feedback, firstElementIn(a.doc, a.logger)); err != nil {
			return false, "", err
		} else if ok {
			return true, "feedback", nil
		}

		if inactive, err := controlInactive(offer.AddControl); err != nil {
			return false, "", err
		} else if inactive {
			return true, "control_disabled", nil
		}

		if offer.Container != nil {
			if _, ok, err := firstAccepted(added, firstElementIn(offer.Container, a.logger)); err != nil {
				return false, "", err
			} else if ok {
				return true, "already_added", nil
			}
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, "", nil
		}
		if err := sleep(ctx, min(timing.PollEvery(), remaining)); err != nil {
			return false, "", nil
		}
	}
}

func controlInactive(el browser.Element) (bool, error) {
	disabled, err := el.Disabled()
	if err != nil || disabled {
		return disabled, err
	}
	aria, _, err := el.Attr("aria-disabled")
	if err != nil {
		return false, err
	}
	return aria == "true", nil
}
