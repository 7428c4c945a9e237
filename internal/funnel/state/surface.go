// File: internal/funnel/state/surface.go

// Package state confirms that the funnel has reached named UI milestones.
// A target state carries an ordered chain of detection strategies, most
// specific first; the resolver walks the chain under an overall time budget
// and reports which strategy observed the state's signal.
package state

import (
	"context"
	"time"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// DefaultPollInterval is the re-check cadence of bounded waits when a
// strategy does not set its own.
const DefaultPollInterval = 250 * time.Millisecond

// Surface is the minimal view of a UI session the resolver needs: passive
// probes for detection, plus the single click used to dismiss transient
// overlays. browser.Driver satisfies it.
type Surface interface {
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Visible reports whether at least one element matching sel is visible.
	Visible(ctx context.Context, sel browser.Selector) (bool, error)
	// Click clicks the first visible element matching sel.
	Click(ctx context.Context, sel browser.Selector) error
}

// pollUntil re-checks cond at the given interval until it reports true or the
// context expires. The first check runs immediately, so an already-observable
// condition resolves without waiting. Probe errors are treated as "not
// observed yet": element staleness during a re-render is routine and the next
// pass gets a fresh look.
func pollUntil(ctx context.Context, interval time.Duration, cond func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if ok && err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
