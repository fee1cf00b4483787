package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grez-lucas/amex-offers/internal/output"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/amex"
	"github.com/spf13/cobra"
)

func newCardsCmd(a *app) *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List the cards behind the card switcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, closeDoc, err := a.document(cmd.Context(), fixture)
			if err != nil {
				return err
			}
			defer closeDoc()

			cards := amex.NewAutomation(doc, a.selectors, a.logger).DiscoverCards(cmd.Context())
			return output.WriteCards(cmd.OutOrStdout(), cards)
		},
	}

	cmd.Flags().StringVar(&fixture, "fixture", "", "read a saved offers page instead of launching Chrome")
	return cmd
}

func newScanCmd(a *app) *cobra.Command {
	var fixture string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the actionable offers for the card on screen",
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, closeDoc, err := a.document(cmd.Context(), fixture)
			if err != nil {
				return err
			}
			defer closeDoc()

			found := amex.NewAutomation(doc, a.selectors, a.logger).Scan(cmd.Context())
			return output.WriteOffers(cmd.OutOrStdout(), found)
		},
	}

	cmd.Flags().StringVar(&fixture, "fixture", "", "read a saved offers page instead of launching Chrome")
	return cmd
}

// document returns a static document for fixture, or the live offers page
// when fixture is empty.
func (a *app) document(ctx context.Context, fixture string) (browser.Document, func(), error) {
	if fixture == "" {
		sess, doc, err := a.openLive(ctx)
		if err != nil {
			return nil, nil, err
		}
		return doc, sess.Close, nil
	}

	f, err := os.Open(fixture)
	if err != nil {
		return nil, nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	doc, err := browser.NewStaticDocumentFromReader(f, browser.WithURL(amex.OffersURL))
	if err != nil {
		return nil, nil, fmt.Errorf("parse fixture: %w", err)
	}
	a.logger.Debug().Str("fixture", fixture).Msg("using saved page")
	return doc, func() {}, nil
}
