// Package offers defines the common types and contracts used by the offer
// automation: cards, offers, results, progress events and selector config.
package offers

import "context"

// Automator adds every available offer to every linked card.
type Automator interface {
	// DiscoverCards enumerates the cards behind the card switcher. It never
	// fails; an empty slice means there is nothing to automate.
	DiscoverCards(ctx context.Context) []Card
	// Start processes cards in order and returns the results of this run.
	Start(ctx context.Context, cards []Card, progress ProgressFunc) []Result
	Pause()
	Resume()
	Stop()
	State() RunState
}
