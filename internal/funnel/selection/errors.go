// File: internal/funnel/selection/errors.go
package selection

import "fmt"

// NoSelectableOptionError reports a selection attempted over an empty
// candidate collection. Always fatal to the current selection step.
type NoSelectableOptionError struct {
	// Candidates is the size of the candidate set the caller supplied.
	Candidates int
}

func (e *NoSelectableOptionError) Error() string {
	return fmt.Sprintf("no selectable option: candidate set is empty (%d candidates)", e.Candidates)
}

// ScopeActivationError reports that a scoped option set could not be
// confirmed rendered within its budget. Fatal to the selection step: ranking
// an unconfirmed subset would silently pick from the wrong options.
type ScopeActivationError struct {
	// Scope is the label of the sub-category that failed to activate.
	Scope string
	Err   error
}

func (e *ScopeActivationError) Error() string {
	return fmt.Sprintf("scope %q not confirmed active: %v", e.Scope, e.Err)
}

func (e *ScopeActivationError) Unwrap() error { return e.Err }
