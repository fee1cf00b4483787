// Package amex drives the American Express offers page: it discovers the
// linked cards, switches between them and adds every available offer.
package amex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/rs/zerolog"
)

var _ offers.Automator = (*Automation)(nil)

// Automation runs the card-by-card, offer-by-offer loop. Start blocks until
// the run ends; Pause, Resume, Stop and State may be called from other
// goroutines while it runs.
type Automation struct {
	selectors offers.SelectorConfig
	logger    zerolog.Logger

	catalog  *CardCatalog
	scanner  *OfferScanner
	switcher *CardSwitcher
	applier  *OfferApplier

	results  *offers.ResultLog
	newRunID func() string

	active  atomic.Bool // a Start call is in progress
	running atomic.Bool // cleared by Stop or context cancellation
	paused  atomic.Bool

	mu    sync.Mutex
	state offers.RunState
}

// Option configures an Automation.
type Option func(*Automation)

// WithResultCapacity bounds the result log kept across runs.
func WithResultCapacity(n int) Option {
	return func(a *Automation) {
		a.results = offers.NewResultLog(n)
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(fn func() string) Option {
	return func(a *Automation) {
		a.newRunID = fn
	}
}

// NewAutomation wires the components against doc.
func NewAutomation(doc browser.Document, selectors offers.SelectorConfig, logger zerolog.Logger, opts ...Option) *Automation {
	selectors.Timing = selectors.Timing.WithDefaults()
	resolver := NewResolver(doc, selectors.Timing, logger)

	a := &Automation{
		selectors: selectors,
		logger:    logger.With().Str("component", "automation").Logger(),
		catalog:   NewCardCatalog(doc, selectors, resolver, logger),
		scanner:   NewOfferScanner(selectors, resolver, logger),
		switcher:  NewCardSwitcher(doc, selectors, resolver, logger),
		applier:   NewOfferApplier(doc, selectors, logger),
		results:   offers.NewResultLog(offers.DefaultResultCapacity),
		newRunID:  uuid.NewString,
		state:     offers.RunState{Phase: offers.PhaseIdle},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DiscoverCards enumerates the cards and records them in the run state.
func (a *Automation) DiscoverCards(ctx context.Context) []offers.Card {
	cards := a.catalog.Discover(ctx)

	a.mu.Lock()
	a.state.Cards = cards
	a.mu.Unlock()

	return cards
}

// Scan lists the actionable offers on the card currently shown.
func (a *Automation) Scan(ctx context.Context) []offers.Offer {
	return a.scanner.Scan(ctx)
}

// Run discovers the cards and processes all of them.
func (a *Automation) Run(ctx context.Context, progress offers.ProgressFunc) []offers.Result {
	if progress == nil {
		progress = func(offers.Progress) {}
	}
	if a.active.Load() {
		a.logger.Warn().Err(offers.ErrAlreadyRunning).Msg("run rejected")
		return nil
	}

	cards := a.DiscoverCards(ctx)
	progress(offers.Progress{Stage: offers.StageCards, Count: len(cards)})
	return a.Start(ctx, cards, progress)
}

// Start processes cards in order, adding every available offer. It returns
// the results of this run only; nil means another run is in progress.
// Cancelling ctx acts like Stop.
func (a *Automation) Start(ctx context.Context, cards []offers.Card, progress offers.ProgressFunc) []offers.Result {
	if progress == nil {
		progress = func(offers.Progress) {}
	}
	if !a.active.CompareAndSwap(false, true) {
		a.logger.Warn().Err(offers.ErrAlreadyRunning).Msg("start rejected")
		return nil
	}
	defer a.active.Store(false)

	valid := make([]offers.Card, 0, len(cards))
	for _, c := range cards {
		if c.Valid() {
			valid = append(valid, c)
		} else {
			a.logger.Warn().Str("card", c.Name).Msg("skipping card without name or value")
		}
	}

	runID := a.newRunID()
	a.running.Store(true)
	a.paused.Store(false)

	a.mu.Lock()
	a.state.RunID = runID
	a.state.Phase = offers.PhaseRunning
	a.state.Cards = valid
	a.state.CurrentCardIndex = 0
	a.state.TotalOffersSeen = 0
	a.mu.Unlock()

	log := a.logger.With().Str("run_id", runID).Logger()
	log.Info().Int("cards", len(valid)).Msg("starting automation")

	results := []offers.Result{}
	err := a.loop(ctx, runID, valid, progress, &results)

	phase := offers.PhaseCompleted
	switch {
	case err != nil:
		phase = offers.PhaseFailed
		log.Error().Err(err).Msg("automation failed")
	case !a.running.Load():
		phase = offers.PhaseStopped
		log.Info().Msg("automation stopped")
	}

	a.running.Store(false)
	a.paused.Store(false)
	a.mu.Lock()
	a.state.Phase = phase
	a.mu.Unlock()

	summary := offers.Summarize(results)
	log.Info().
		Str("phase", string(phase)).
		Int("total", summary.Total).
		Int("success", summary.Success).
		Int("uncertain", summary.Uncertain).
		Int("errors", summary.Errors).
		Msg("automation finished")

	done := offers.Progress{
		Stage: offers.StageComplete,
		Count: summary.Success,
		Total: summary.Total,
		Phase: phase,
		Err:   err,
	}
	if phase == offers.PhaseCompleted {
		done.Percent = 100
	}
	progress(done)

	return results
}

func (a *Automation) loop(ctx context.Context, runID string, cards []offers.Card, progress offers.ProgressFunc, results *[]offers.Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &offers.AutomationError{Operation: "run", Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	for ci, card := range cards {
		if a.stopped(ctx) {
			return nil
		}
		log := a.logger.With().Str("run_id", runID).Str("card", card.Name).Logger()

		a.mu.Lock()
		a.state.CurrentCardIndex = ci
		a.mu.Unlock()

		progress(offers.Progress{
			Stage:     offers.StageCard,
			Card:      card.Name,
			CardIndex: ci + 1,
			CardCount: len(cards),
			Percent:   offers.Percent(ci, len(cards), 0, 0),
		})

		if !a.switcher.SwitchTo(ctx, card) {
			log.Error().Msg("failed to switch card, skipping")
			continue
		}

		found := a.scanner.Scan(ctx)
		a.mu.Lock()
		a.state.TotalOffersSeen += len(found)
		a.mu.Unlock()

		progress(offers.Progress{Stage: offers.StageOffers, Card: card.Name, Count: len(found)})
		if len(found) == 0 {
			log.Info().Msg("no offers available")
			continue
		}

		for oi, offer := range found {
			a.waitWhilePaused(ctx)
			if a.stopped(ctx) {
				return nil
			}

			progress(offers.Progress{
				Stage:    offers.StageAdding,
				Card:     card.Name,
				Merchant: offer.Merchant,
				Current:  oi + 1,
				Total:    len(found),
				Percent:  offers.Percent(ci, len(cards), oi, len(found)),
			})

			res := a.applier.Apply(ctx, offer, card)
			res.RunID = runID
			*results = append(*results, res)
			if a.results.Append(res) {
				log.Warn().Int("capacity", a.results.Cap()).Msg("result log full, dropped oldest result")
			}
		}
	}
	return nil
}

// stopped reports whether the run should end. A done context counts as Stop.
func (a *Automation) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		a.running.Store(false)
	}
	return !a.running.Load()
}

func (a *Automation) waitWhilePaused(ctx context.Context) {
	if !a.paused.Load() {
		return
	}
	a.logger.Info().Msg("automation paused")
	for a.paused.Load() && !a.stopped(ctx) {
		_ = sleep(ctx, a.selectors.Timing.PausePollEvery())
	}
	a.logger.Info().Msg("automation resumed")
}

// Pause holds the run before its next offer. It has no effect when idle.
func (a *Automation) Pause() {
	if a.running.Load() {
		a.paused.Store(true)
	}
}

func (a *Automation) Resume() {
	a.paused.Store(false)
}

// TogglePause flips the pause flag and returns the new value.
func (a *Automation) TogglePause() bool {
	if a.paused.Load() {
		a.Resume()
		return false
	}
	a.Pause()
	return a.paused.Load()
}

// Stop ends the run before its next offer. The offer in flight finishes.
func (a *Automation) Stop() {
	a.running.Store(false)
	a.paused.Store(false)
}

// State returns a snapshot of the current or last run.
func (a *Automation) State() offers.RunState {
	a.mu.Lock()
	s := a.state
	s.Cards = append([]offers.Card(nil), a.state.Cards...)
	a.mu.Unlock()

	s.IsRunning = a.running.Load()
	s.IsPaused = a.paused.Load()
	if s.Phase == offers.PhaseRunning && s.IsPaused {
		s.Phase = offers.PhasePaused
	}
	s.Results = a.results.Snapshot()
	return s
}

// Results returns the retained results of every run, oldest first.
func (a *Automation) Results() []offers.Result {
	return a.results.Snapshot()
}

// Summary tallies the retained results.
func (a *Automation) Summary() offers.Summary {
	return offers.Summarize(a.results.Snapshot())
}

// Reset clears the result log and run state. It fails while a run is active.
func (a *Automation) Reset() error {
	if a.active.Load() {
		return offers.ErrAlreadyRunning
	}
	a.results.Reset()

	a.mu.Lock()
	a.state = offers.RunState{Phase: offers.PhaseIdle}
	a.mu.Unlock()
	return nil
}
