package engine

import (
	"errors"
	"fmt"
)

// Domain errors for session operations.
var (
	// ErrSweepActive indicates a sweep was requested while another one
	// holds the analysis slot.
	ErrSweepActive = errors.New("engine: sweep already in progress")

	// ErrUnsupportedLattice indicates no step rule exists for the
	// session's lattice variant.
	ErrUnsupportedLattice = errors.New("engine: no step rule for lattice variant")
)

// StepError reports a fatal hot-loop failure with the lifetime trial
// index at which it occurred.
type StepError struct {
	Trial   int64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("engine: trial %d: %v", e.Trial, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
