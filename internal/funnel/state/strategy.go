// File: internal/funnel/state/strategy.go
package state

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// DetectionStrategy is one bounded-time way of observing a target state's
// signal. Implementations are immutable once built and hold no state between
// attempts.
type DetectionStrategy interface {
	// Name identifies the strategy in logs and failure reports.
	Name() string
	// Budget caps a single attempt's wait. Zero means no cap of its own; the
	// resolver grants whatever remains of the overall budget.
	Budget() time.Duration
	// Attempt blocks until the signal is observed or ctx expires. A nil
	// return means observed; any error means not observed within the window.
	Attempt(ctx context.Context) error
}

// StrategyOption tunes a built-in strategy.
type StrategyOption func(*probeStrategy)

// WithBudget caps the strategy's own wait window.
func WithBudget(d time.Duration) StrategyOption {
	return func(s *probeStrategy) { s.budget = d }
}

// WithPollInterval overrides the strategy's re-check cadence.
func WithPollInterval(d time.Duration) StrategyOption {
	return func(s *probeStrategy) { s.interval = d }
}

// probeStrategy polls a one-shot probe until it observes the signal.
type probeStrategy struct {
	name     string
	budget   time.Duration
	interval time.Duration
	probe    func(ctx context.Context) (bool, error)
}

func (s *probeStrategy) Name() string          { return s.name }
func (s *probeStrategy) Budget() time.Duration { return s.budget }

func (s *probeStrategy) Attempt(ctx context.Context) error {
	if err := pollUntil(ctx, s.interval, s.probe); err != nil {
		return fmt.Errorf("strategy %s: signal not observed: %w", s.name, err)
	}
	return nil
}

func newProbeStrategy(name string, probe func(ctx context.Context) (bool, error), opts []StrategyOption) *probeStrategy {
	s := &probeStrategy{name: name, interval: DefaultPollInterval, probe: probe}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RoleVisible observes an element with the given ARIA role whose accessible
// name matches the pattern. The most reliable signal a page offers: semantic
// roles survive the markup churn that breaks structural selectors.
func RoleVisible(s Surface, role string, name *regexp.Regexp, opts ...StrategyOption) DetectionStrategy {
	sel := browser.ByRole(role, name)
	return newProbeStrategy(
		fmt.Sprintf("role:%s[name~%s]", role, name),
		func(ctx context.Context) (bool, error) { return s.Visible(ctx, sel) },
		opts,
	)
}

// LocationMatches observes the page URL matching the pattern. Useful for
// funnel steps that change the route before they finish rendering.
func LocationMatches(s Surface, pattern *regexp.Regexp, opts ...StrategyOption) DetectionStrategy {
	return newProbeStrategy(
		"url~"+pattern.String(),
		func(ctx context.Context) (bool, error) {
			loc, err := s.Location(ctx)
			if err != nil {
				return false, err
			}
			return pattern.MatchString(loc), nil
		},
		opts,
	)
}

// SelectorVisible observes a visible element matching a raw structural
// selector. The generic fallback when semantic signals are absent.
func SelectorVisible(s Surface, css string, opts ...StrategyOption) DetectionStrategy {
	sel := browser.ByCSS(css)
	return newProbeStrategy(
		"css:"+css,
		func(ctx context.Context) (bool, error) { return s.Visible(ctx, sel) },
		opts,
	)
}

// TextVisible observes visible text matching the pattern anywhere on the page.
func TextVisible(s Surface, pattern *regexp.Regexp, opts ...StrategyOption) DetectionStrategy {
	sel := browser.ByText(pattern)
	return newProbeStrategy(
		"text~"+pattern.String(),
		func(ctx context.Context) (bool, error) { return s.Visible(ctx, sel) },
		opts,
	)
}
