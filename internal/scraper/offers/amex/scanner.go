package amex

import (
	"context"
	"fmt"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

// OfferScanner lists the offers on the current card that can still be added.
type OfferScanner struct {
	selectors offers.SelectorConfig
	resolver  *Resolver
	logger    zerolog.Logger
}

func NewOfferScanner(selectors offers.SelectorConfig, resolver *Resolver, logger zerolog.Logger) *OfferScanner {
	return &OfferScanner{
		selectors: selectors,
		resolver:  resolver,
		logger:    logger.With().Str("component", "scanner").Logger(),
	}
}

// Scan returns the actionable offers in page order. It fails closed: any DOM
// error while reading offer cards discards the whole scan so nothing is added
// from a half-read page.
func (s *OfferScanner) Scan(ctx context.Context) (found []offers.Offer) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("offer scan panicked")
			found = []offers.Offer{}
		}
	}()

	sel := s.selectors.Offers

	container, err := s.resolver.ResolveChain(ctx, sel.Container, sel.ContainerFallbacks, 0)
	if err != nil {
		s.logger.Error().Err(fmt.Errorf("%w: %w", offers.ErrOffersContainerNotFound, err)).Msg("cannot scan offers")
		return []offers.Offer{}
	}

	cards, ok, err := firstAccepted(chain(sel.Card, sel.CardFallbacks), allIn(container, s.logger))
	if err != nil {
		s.logger.Error().Err(err).Msg("error scanning offers")
		return []offers.Offer{}
	}
	if !ok {
		s.logger.Info().Msg("no offer cards found")
		return []offers.Offer{}
	}
	s.logger.Debug().Int("count", len(cards)).Msg("offer cards found")

	found = []offers.Offer{}
	for i, card := range cards {
		offer, ok, err := s.read(card, i)
		if err != nil {
			s.logger.Error().Err(err).Int("index", i).Msg("error scanning offers")
			return []offers.Offer{}
		}
		if ok {
			found = append(found, offer)
		}
	}

	s.logger.Info().Int("available", len(found)).Int("total", len(cards)).Msg("offers scanned")
	return found
}

// read extracts one offer card. ok is false for cards that are already
// added, have no add control or whose control is disabled.
func (s *OfferScanner) read(card browser.Element, index int) (offers.Offer, bool, error) {
	sel := s.selectors.Offers

	_, added, err := firstAccepted(chain(sel.AlreadyAdded, sel.AlreadyAddedFallbacks), firstElementIn(card, s.logger))
	if err != nil {
		return offers.Offer{}, false, err
	}
	if added {
		s.logger.Debug().Int("index", index).Msg("offer already added, skipping")
		return offers.Offer{}, false, nil
	}

	merchant, ok, err := firstAccepted(chain(sel.MerchantName, sel.MerchantNameFallbacks), firstTextIn(card, s.logger))
	if err != nil {
		return offers.Offer{}, false, err
	}
	if !ok {
		merchant = fmt.Sprintf("Unknown Merchant %d", index+1)
	}

	add, ok, err := firstAccepted(chain(sel.AddButton, sel.AddButtonFallbacks), firstElementIn(card, s.logger))
	if err != nil {
		return offers.Offer{}, false, err
	}
	if !ok {
		s.logger.Warn().Str("merchant", merchant).Msg("no add button found")
		return offers.Offer{}, false, nil
	}

	disabled, err := add.Disabled()
	if err != nil {
		return offers.Offer{}, false, err
	}
	if disabled {
		s.logger.Debug().Str("merchant", merchant).Msg("add button disabled, skipping")
		return offers.Offer{}, false, nil
	}

	return offers.Offer{Merchant: merchant, AddControl: add, Container: card}, true, nil
}
