// File: internal/funnel/state/errors.go
package state

import (
	"fmt"
	"strings"
	"time"
)

// StateNotReachedError reports that every detection strategy for a target was
// exhausted without observing its signal. Recoverable: the caller may retry
// the await or fail its own step.
type StateNotReachedError struct {
	// Target is the label of the state that was not confirmed.
	Target string
	// Attempted lists the strategy names tried, in order.
	Attempted []string
	// Elapsed is the total time spent across all attempts.
	Elapsed time.Duration
}

func (e *StateNotReachedError) Error() string {
	return fmt.Sprintf("state %q not reached after %s (strategies tried: %s)",
		e.Target, e.Elapsed.Round(time.Millisecond), strings.Join(e.Attempted, ", "))
}
