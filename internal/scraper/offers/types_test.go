package offers

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResult_StatusDrivesSuccess(t *testing.T) {
	card := Card{Name: "Gold Card", Value: "G"}
	offer := Offer{Merchant: "Amazon"}

	tests := []struct {
		status    Status
		msg       string
		wantOK    bool
		wantError string
	}{
		{StatusSuccess, "ignored", true, ""},
		{StatusUncertain, "No success indicator found, but no error occurred", false, "No success indicator found, but no error occurred"},
		{StatusError, "Add button is disabled", false, "Add button is disabled"},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			r := NewResult(card, offer, tt.status, tt.msg)

			assert.Equal(t, tt.wantOK, r.Success)
			assert.Equal(t, tt.wantError, r.Error)
			assert.Equal(t, "Gold Card", r.CardName)
			assert.Equal(t, "Amazon", r.Merchant)
			assert.WithinDuration(t, time.Now(), r.Timestamp, 10*time.Second)
			assert.Equal(t, time.UTC, r.Timestamp.Location())
		})
	}
}

func TestResult_JSONFieldNames(t *testing.T) {
	r := NewResult(Card{Name: "Gold Card"}, Offer{Merchant: "Amazon"}, StatusError, "boom")
	r.RunID = "run-1"

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	for _, key := range []string{"timestamp", "runId", "cardName", "merchant", "status", "success", "error"} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "error", m["status"])
	assert.Equal(t, false, m["success"])
}

func TestResult_TimestampMillisecondPrecision(t *testing.T) {
	r := NewResult(Card{Name: "Gold Card"}, Offer{Merchant: "Amazon"}, StatusSuccess, "")

	assert.Zero(t, r.Timestamp.Nanosecond()%int(time.Millisecond))

	data, err := json.Marshal(r)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,3})?Z$`), m["timestamp"])
}

func TestCard_Valid(t *testing.T) {
	assert.True(t, Card{Name: "Gold", Value: "G"}.Valid())
	assert.False(t, Card{Name: "Gold"}.Valid())
	assert.False(t, Card{Value: "G"}.Valid())
}

func TestPhase_Terminal(t *testing.T) {
	for _, p := range []Phase{PhaseCompleted, PhaseStopped, PhaseFailed} {
		assert.True(t, p.Terminal(), p)
	}
	for _, p := range []Phase{PhaseIdle, PhaseRunning, PhasePaused} {
		assert.False(t, p.Terminal(), p)
	}
}

func TestSummarize(t *testing.T) {
	card := Card{Name: "Gold"}
	results := []Result{
		NewResult(card, Offer{Merchant: "a"}, StatusSuccess, ""),
		NewResult(card, Offer{Merchant: "b"}, StatusSuccess, ""),
		NewResult(card, Offer{Merchant: "c"}, StatusUncertain, "?"),
	}

	s := Summarize(results)

	assert.Equal(t, Summary{Total: 3, Success: 2, Uncertain: 1, Errors: 0, SuccessRate: 66.7}, s)
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, float64(0), Percent(0, 0, 0, 0))
	assert.Equal(t, float64(0), Percent(0, 2, 0, 4))
	assert.Equal(t, float64(25), Percent(0, 2, 2, 4))
	assert.Equal(t, float64(50), Percent(1, 2, 0, 0))
	assert.Equal(t, float64(87.5), Percent(1, 2, 3, 4))
}

func TestAutomationError(t *testing.T) {
	err := &AutomationError{Operation: "switch card", Card: "Gold", Cause: ErrSwitcherNotFound, Details: "after login"}

	assert.ErrorIs(t, err, ErrSwitcherNotFound)
	assert.Equal(t, "[Gold] switch card failed: card switcher not found - after login", err.Error())
	assert.Equal(t, "run failed: card switcher not found", (&AutomationError{Operation: "run", Cause: ErrSwitcherNotFound}).Error())
}
