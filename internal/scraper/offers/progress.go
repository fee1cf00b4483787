package offers

// Stage tags a progress event.
type Stage string

const (
	StageCards    Stage = "cards"
	StageCard     Stage = "card"
	StageOffers   Stage = "offers"
	StageAdding   Stage = "adding"
	StageComplete Stage = "complete"
)

// Progress is the payload handed to a ProgressFunc. Which fields are set
// depends on the stage:
//
//	cards:    Count (cards discovered)
//	card:     Card, CardIndex (1-based), CardCount
//	offers:   Card, Count (offers found)
//	adding:   Card, Merchant, Current (1-based), Total, Percent
//	complete: Count (successes), Total (attempts), Phase, Err
type Progress struct {
	Stage     Stage
	Card      string
	CardIndex int
	CardCount int
	Merchant  string
	Current   int
	Total     int
	Count     int
	Percent   float64
	Phase     Phase
	Err       error
}

// ProgressFunc receives progress events. It is called synchronously from the
// automation loop and must not block for long.
type ProgressFunc func(Progress)

// Percent computes overall completion as
// (cardIndex + offerIndex/offerCount) / cardCount, scaled to 0-100.
// Indexes are zero-based.
func Percent(cardIndex, cardCount, offerIndex, offerCount int) float64 {
	if cardCount <= 0 {
		return 0
	}
	done := float64(cardIndex)
	if offerCount > 0 {
		done += float64(offerIndex) / float64(offerCount)
	}
	return done / float64(cardCount) * 100
}
