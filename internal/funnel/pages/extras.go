// File: internal/funnel/pages/extras.go
package pages

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

var declineRe = regexp.MustCompile(`(?i)(no,?\s*thanks|skip|decline|not now|continue without)`)

// Extras is the ancillary upsell stage (bags, insurance, bundles). The
// stage is optional and every offer is declined; anything added here would
// distort the fare being tracked.
type Extras struct {
	deps Deps
	log  *zap.Logger
}

func NewExtras(deps Deps) *Extras {
	return &Extras{deps: deps, log: deps.logger().Named("extras")}
}

func (p *Extras) Name() string   { return "extras" }
func (p *Extras) Optional() bool { return true }

func (p *Extras) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "extras-offers",
		Strategies: []state.DetectionStrategy{
			state.SelectorVisible(d, `[data-testid="extras"], .extras, .ancillaries, .upsell`,
				state.WithBudget(p.deps.StrategyBudget)),
			state.LocationMatches(d, regexp.MustCompile(`(?i)(extras|ancillar|baggage|add-?ons)`),
				state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)(add\s+(bags?|extras)|travel\s+insurance|protect\s+your\s+trip)`)),
		},
	}
}

// Act declines visible offers until none remain, then continues. The loop
// is bounded; a page that keeps re-rendering decline affordances must not
// wedge the run.
func (p *Extras) Act(ctx context.Context) error {
	d := p.deps.Driver
	for declined := 0; declined < 5; declined++ {
		err := clickFirst(ctx, d,
			browser.ByRole("button", declineRe),
			browser.ByText(declineRe),
		)
		if errors.Is(err, browser.ErrNoMatch) {
			break
		}
		if err != nil {
			return err
		}
		p.log.Debug("Offer declined.", zap.Int("count", declined+1))
	}

	return clickOptional(ctx, p.log, d, "extras continue",
		browser.ByRole("button", regexp.MustCompile(`(?i)(continue|next|proceed)`)),
		browser.ByCSS(`button[type="submit"], [data-testid="extras-continue"]`),
	)
}
