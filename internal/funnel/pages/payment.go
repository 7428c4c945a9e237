// File: internal/funnel/pages/payment.go
package pages

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

// Payment is the terminal checkpoint. Reaching it proves the selected fare
// survived the funnel; nothing on this page is ever filled or submitted, so
// no booking can be created.
type Payment struct {
	deps Deps
	log  *zap.Logger
}

func NewPayment(deps Deps) *Payment {
	return &Payment{deps: deps, log: deps.logger().Named("payment")}
}

func (p *Payment) Name() string   { return "payment" }
func (p *Payment) Optional() bool { return false }

func (p *Payment) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "payment-form",
		Strategies: []state.DetectionStrategy{
			state.SelectorVisible(d,
				`form#payment, [data-testid="payment-form"], input[name*="card"], input[autocomplete="cc-number"]`,
				state.WithBudget(p.deps.StrategyBudget)),
			state.LocationMatches(d, regexp.MustCompile(`(?i)(payment|checkout|purchase|pay)`),
				state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)(payment\s+(details|method)|card\s+number)`)),
		},
	}
}

// Act records arrival and stops.
func (p *Payment) Act(ctx context.Context) error {
	p.log.Info("Payment checkpoint reached, stopping before any charge.")
	return ctx.Err()
}
