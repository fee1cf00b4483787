package offers

import (
	"time"

	"github.com/grez-lucas/amex-offers/internal/scraper/browser"
)

// SwitcherKind identifies the UI pattern of the card switcher.
type SwitcherKind string

const (
	SwitcherSelect   SwitcherKind = "select"
	SwitcherTabs     SwitcherKind = "tabs"
	SwitcherButtons  SwitcherKind = "buttons"
	SwitcherCombobox SwitcherKind = "combobox"
)

// Card describes one account linked to the login.
type Card struct {
	Name       string
	Value      string
	AccountKey string
	Index      int
	// Kind is the switcher pattern the card was discovered through.
	Kind SwitcherKind
	// Synthetic marks the stand-in for the card already on screen when the
	// switcher could not be enumerated. Switching to it clicks nothing.
	Synthetic bool
	// Ref is the node used to select the card. It belongs to the page and can
	// go stale after a re-render, so the switcher re-locates it when it can.
	Ref browser.Element `json:"-"`
}

// Valid reports whether the card can be handed to the orchestrator.
func (c Card) Valid() bool {
	return c.Name != "" && c.Value != ""
}

// Offer is an actionable offer on the card currently displayed.
type Offer struct {
	Merchant   string
	AddControl browser.Element `json:"-"`
	Container  browser.Element `json:"-"`
}

// Status is the outcome of one apply attempt.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusUncertain Status = "uncertain"
	StatusError     Status = "error"
)

// Result records one apply attempt. Results are never mutated after creation.
type Result struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"runId,omitempty"`
	CardName  string    `json:"cardName"`
	Merchant  string    `json:"merchant"`
	Status    Status    `json:"status"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// NewResult builds a Result stamped with the current time. Success is derived
// from status and the error message is dropped for successful attempts.
func NewResult(card Card, offer Offer, status Status, msg string) Result {
	r := Result{
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		CardName:  card.Name,
		Merchant:  offer.Merchant,
		Status:    status,
		Success:   status == StatusSuccess,
	}
	if !r.Success {
		r.Error = msg
	}
	return r
}

// Phase is the lifecycle position of an automation run.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhasePaused    Phase = "paused"
	PhaseCompleted Phase = "completed"
	PhaseStopped   Phase = "stopped"
	PhaseFailed    Phase = "failed"
)

// Terminal reports whether no further transitions happen for the run.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseStopped || p == PhaseFailed
}

// RunState is a snapshot of one automation run.
type RunState struct {
	RunID            string
	Phase            Phase
	Cards            []Card
	CurrentCardIndex int
	Results          []Result
	IsRunning        bool
	IsPaused         bool
	TotalOffersSeen  int
}

// Summary aggregates a set of results.
type Summary struct {
	Total       int
	Success     int
	Uncertain   int
	Errors      int
	SuccessRate float64 // percent, one decimal
}

// Summarize tallies results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		switch r.Status {
		case StatusSuccess:
			s.Success++
		case StatusUncertain:
			s.Uncertain++
		default:
			s.Errors++
		}
	}
	if s.Total > 0 {
		rate := float64(s.Success) / float64(s.Total) * 100
		s.SuccessRate = float64(int(rate*10+0.5)) / 10
	}
	return s
}
