package offers

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a selector, or every selector of a fallback chain,
	// did not match before its timeout. It is a normal outcome.
	ErrNotFound = errors.New("element not found")

	ErrSwitcherNotFound        = errors.New("card switcher not found")
	ErrOffersContainerNotFound = errors.New("offers container not found")

	ErrAddButtonDisabled = errors.New("Add button is disabled")
	ErrMissingAddControl = errors.New("missing add control")
	ErrMissingCardName   = errors.New("missing card name")

	ErrAlreadyRunning = errors.New("automation already running")
	ErrInvalidConfig  = errors.New("invalid selector config")
	ErrNotOffersPage  = errors.New("not on the offers page")
)

// AutomationError provides detailed error context
type AutomationError struct {
	Operation string
	Card      string
	Cause     error
	Details   string
}

func (e *AutomationError) Error() string {
	msg := fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
	if e.Card != "" {
		msg = fmt.Sprintf("[%s] %s", e.Card, msg)
	}
	if e.Details != "" {
		msg += " - " + e.Details
	}
	return msg
}

func (e *AutomationError) Unwrap() error {
	return e.Cause
}
