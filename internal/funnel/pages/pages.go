// File: internal/funnel/pages/pages.go

// Package pages models the stages of a booking funnel. Each page bundles the
// target state that proves it has rendered with the action that advances
// past it. Selectors come in ordered alternatives, semantic first, so one
// page definition survives cosmetic markup differences between carriers.
package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

// Step is one funnel stage in walk order.
type Step interface {
	// Name labels the stage in logs and run reports.
	Name() string
	// Ready defines the rendered-state signal chain for the stage.
	Ready() state.TargetState
	// Act advances the funnel past the stage. The checkpoint stage is a
	// no-op.
	Act(ctx context.Context) error
	// Optional reports whether the stage may be absent from a funnel; the
	// runner skips an optional stage whose ready state never shows up.
	Optional() bool
}

// Deps carries what every page needs.
type Deps struct {
	Driver browser.Driver
	Logger *zap.Logger
	// StrategyBudget caps each non-final detection strategy so the chain
	// makes progress; the final fallback runs on the remaining budget.
	StrategyBudget time.Duration
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// fillFirst writes value into the first selector alternative that resolves.
func fillFirst(ctx context.Context, d browser.Driver, value string, sels ...browser.Selector) error {
	for _, sel := range sels {
		err := d.Fill(ctx, sel, value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, browser.ErrNoMatch) {
			return err
		}
	}
	return fmt.Errorf("no fillable field among %d alternatives: %w", len(sels), browser.ErrNoMatch)
}

// clickFirst clicks the first selector alternative that resolves.
func clickFirst(ctx context.Context, d browser.Driver, sels ...browser.Selector) error {
	for _, sel := range sels {
		err := d.Click(ctx, sel)
		if err == nil {
			return nil
		}
		if !errors.Is(err, browser.ErrNoMatch) {
			return err
		}
	}
	return fmt.Errorf("no clickable control among %d alternatives: %w", len(sels), browser.ErrNoMatch)
}

// fillOptional fills a field that not every funnel renders. Absence is
// logged and tolerated; any other failure still surfaces.
func fillOptional(ctx context.Context, log *zap.Logger, d browser.Driver, field, value string, sels ...browser.Selector) error {
	err := fillFirst(ctx, d, value, sels...)
	if err == nil {
		return nil
	}
	if errors.Is(err, browser.ErrNoMatch) {
		log.Debug("Optional field not present; skipping.", zap.String("field", field))
		return nil
	}
	return err
}

// clickOptional clicks a control that not every funnel renders.
func clickOptional(ctx context.Context, log *zap.Logger, d browser.Driver, control string, sels ...browser.Selector) error {
	err := clickFirst(ctx, d, sels...)
	if err == nil {
		return nil
	}
	if errors.Is(err, browser.ErrNoMatch) {
		log.Debug("Optional control not present; skipping.", zap.String("control", control))
		return nil
	}
	return err
}
