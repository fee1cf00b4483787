package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grez-lucas/amex-offers/internal/output"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers/amex"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log in and add every offer to every card",
		Long: `Opens Chrome on the Amex offers page, logs in with AMEX_USERNAME and
AMEX_PASSWORD when set (otherwise waits for a manual login), then adds every
available offer to every linked card. Ctrl-C stops after the current offer
and still writes the results collected so far.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, doc, err := a.openLive(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			auto := amex.NewAutomation(doc, a.selectors, a.logger)
			if dryRun {
				return a.preview(ctx, cmd.OutOrStdout(), auto)
			}

			results := auto.Run(ctx, logProgress(a.logger))

			s := auto.Summary()
			a.logger.Info().
				Int("total", s.Total).
				Int("success", s.Success).
				Int("uncertain", s.Uncertain).
				Int("errors", s.Errors).
				Float64("success_rate", s.SuccessRate).
				Str("phase", string(auto.State().Phase)).
				Msg("automation finished")

			// Results are written even when the run was interrupted.
			return output.WriteAll(context.WithoutCancel(ctx), results, a.writers(cmd.OutOrStdout())...)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list cards and offers without adding anything")
	return cmd
}

// openLive launches Chrome, opens the offers page and checks the page guard.
func (a *app) openLive(ctx context.Context) (*browser.Session, *browser.RodDocument, error) {
	sess, err := browser.Launch(browser.LaunchOptions{
		Headless:     a.cfg.Browser.Headless,
		ProfileDir:   a.cfg.Browser.ProfileDir,
		Bin:          a.cfg.Browser.Bin,
		WindowWidth:  a.cfg.Browser.WindowWidth,
		WindowHeight: a.cfg.Browser.WindowHeight,
	}, a.logger)
	if err != nil {
		return nil, nil, err
	}

	nav := amex.NewNavigator(sess.Page, a.selectors, a.logger)
	nav.URLPattern = a.cfg.Site.URLPattern
	creds := amex.Credentials{Username: a.cfg.Site.Username, Password: a.cfg.Site.Password}
	if err := nav.Open(ctx, creds, a.cfg.Site.LoginTimeout); err != nil {
		sess.Close()
		return nil, nil, err
	}

	doc := sess.Document()
	if err := amex.EnsureOffersPage(doc, a.cfg.Site.URLPattern); err != nil {
		sess.Close()
		return nil, nil, err
	}
	return sess, doc, nil
}

func (a *app) preview(ctx context.Context, out io.Writer, auto *amex.Automation) error {
	cards := auto.DiscoverCards(ctx)
	if err := output.WriteCards(out, cards); err != nil {
		return err
	}
	found := auto.Scan(ctx)
	if err := output.WriteOffers(out, found); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d cards, %d offers on the current card\n", len(cards), len(found))
	return nil
}

func (a *app) writers(out io.Writer) []output.Writer {
	var ws []output.Writer
	if a.cfg.Output.Table {
		ws = append(ws, output.NewTableWriter(out))
	}
	if a.cfg.Output.JSON {
		ws = append(ws, output.NewFileWriter(a.cfg.Output.Dir, a.logger))
	}
	ws = append(ws, output.NewSheetsWriter(output.SheetsConfig{
		SpreadsheetID: a.cfg.Sheets.SheetID,
		SheetName:     a.cfg.Sheets.SheetName,
		APIKey:        a.cfg.Sheets.APIKey,
		Endpoint:      a.cfg.Sheets.Endpoint,
	}, nil, a.logger))
	return ws
}

// logProgress reports automation progress through logger.
func logProgress(logger zerolog.Logger) offers.ProgressFunc {
	return func(p offers.Progress) {
		switch p.Stage {
		case offers.StageCards:
			logger.Info().Int("cards", p.Count).Msg("cards discovered")
		case offers.StageCard:
			logger.Info().Str("card", p.Card).Msgf("processing card %d/%d", p.CardIndex, p.CardCount)
		case offers.StageOffers:
			logger.Info().Str("card", p.Card).Int("offers", p.Count).Msg("offers found")
		case offers.StageAdding:
			logger.Info().
				Str("card", p.Card).
				Str("merchant", p.Merchant).
				Str("progress", fmt.Sprintf("%.0f%%", p.Percent)).
				Msgf("adding offer %d/%d", p.Current, p.Total)
		case offers.StageComplete:
			ev := logger.Info()
			if p.Err != nil {
				ev = logger.Error().Err(p.Err)
			}
			ev.Str("phase", string(p.Phase)).Int("added", p.Count).Int("attempted", p.Total).Msg("run complete")
		}
	}
}
