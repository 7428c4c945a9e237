// File: internal/funnel/state/resolver.go
package state

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TargetState labels a UI milestone and carries the ordered detection
// strategies that confirm it, most specific and most reliable first.
type TargetState struct {
	Label      string
	Strategies []DetectionStrategy
}

// Observation reports a confirmed target state: which strategy observed the
// signal and how long the confirmation took.
type Observation struct {
	Target   string
	Strategy string
	Elapsed  time.Duration
}

// Resolver walks a target state's strategy chain under a time budget. It is
// purely passive except for the overlay dismissal click in
// AcceptTransientOverlay. A Resolver is stateless across calls; every call is
// self-contained given its inputs.
type Resolver struct {
	surface Surface
	logger  *zap.Logger
}

// NewResolver builds a resolver over the given UI surface.
func NewResolver(surface Surface, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{surface: surface, logger: logger.Named("resolver")}
}

// AwaitState blocks until one of the target's strategies observes its signal
// or the budget is exhausted.
//
// Strategies run in declared order. Each receives the smaller of its own
// budget and the remaining overall budget; the first success wins immediately
// and later strategies are never tried. A strategy whose window expires is
// skipped, never retried. Individual strategy failures are swallowed; only
// total exhaustion surfaces, as *StateNotReachedError. Cancellation of ctx
// aborts the walk immediately and surfaces as a wrapped context error,
// distinguishable from exhaustion via errors.Is.
//
// Calling again after success is safe: while the signal is still observable
// the first strategy resolves on its opening probe.
func (r *Resolver) AwaitState(ctx context.Context, target TargetState, budget time.Duration) (*Observation, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("await %q: budget must be positive, got %v", target.Label, budget)
	}
	if len(target.Strategies) == 0 {
		return nil, fmt.Errorf("await %q: target defines no detection strategies", target.Label)
	}

	start := time.Now()
	deadline := start.Add(budget)
	attempted := make([]string, 0, len(target.Strategies))
	log := r.logger.With(zap.String("target", target.Label), zap.Duration("budget", budget))
	log.Debug("Awaiting target state.")

	for _, strat := range target.Strategies {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		window := strat.Budget()
		if window <= 0 || window > remaining {
			window = remaining
		}
		attempted = append(attempted, strat.Name())

		attemptCtx, cancel := context.WithTimeout(ctx, window)
		err := strat.Attempt(attemptCtx)
		cancel()

		if err == nil {
			obs := &Observation{
				Target:   target.Label,
				Strategy: strat.Name(),
				Elapsed:  time.Since(start),
			}
			log.Debug("Target state observed.",
				zap.String("strategy", obs.Strategy),
				zap.Duration("elapsed", obs.Elapsed))
			return obs, nil
		}
		if ctx.Err() != nil {
			// External abort, not a strategy timeout.
			log.Debug("Await aborted by caller.", zap.Error(ctx.Err()))
			return nil, fmt.Errorf("await %q: %w", target.Label, ctx.Err())
		}
		log.Debug("Strategy window expired, moving on.",
			zap.String("strategy", strat.Name()),
			zap.Duration("window", window))
	}

	failure := &StateNotReachedError{
		Target:    target.Label,
		Attempted: attempted,
		Elapsed:   time.Since(start),
	}
	log.Warn("Target state not reached.",
		zap.Strings("attempted", attempted),
		zap.Duration("elapsed", failure.Elapsed))
	return nil, failure
}
