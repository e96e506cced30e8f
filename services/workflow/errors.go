package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrLinkNotFound means no stored record carries the presented hash.
	// Distinct from decryption and expiry failures so callers can show the
	// right message.
	ErrLinkNotFound = errors.New("action link not found")

	// ErrLinkExpired means the link decoded fine but its expiry passed.
	ErrLinkExpired = errors.New("action link expired")

	// ErrOutOfOrder means a step was asked to run before its predecessor
	// reached a terminal state.
	ErrOutOfOrder = errors.New("workflow step out of order")
)

// StepError wraps a failure inside a step handler with the step it broke in.
type StepError struct {
	Step    string
	Number  int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Number, e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

func newStepError(step string, number int, err error) *StepError {
	return &StepError{Step: step, Number: number, Wrapped: err}
}
