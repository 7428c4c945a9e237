// File: internal/funnel/pages/seats.go
package pages

import (
	"context"
	"errors"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

const seatCSS = `.seat.available, [data-seat-available="true"], .seat-map .seat:not(.taken):not(.occupied)`

// Seats is the seat-map stage. Many carriers skip it or fold it into
// extras, so the stage is optional and a missing map is not a failure.
type Seats struct {
	deps Deps
	log  *zap.Logger
}

func NewSeats(deps Deps) *Seats {
	return &Seats{deps: deps, log: deps.logger().Named("seats")}
}

func (p *Seats) Name() string   { return "seats" }
func (p *Seats) Optional() bool { return true }

func (p *Seats) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "seat-map",
		Strategies: []state.DetectionStrategy{
			state.SelectorVisible(d, `.seat-map, [data-testid="seat-map"], .seatmap`,
				state.WithBudget(p.deps.StrategyBudget)),
			state.LocationMatches(d, regexp.MustCompile(`(?i)seat`),
				state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)(choose|select)\s+(your\s+)?seats?`)),
		},
	}
}

// Act picks the first available seat when the map offers one, then
// continues. Fully booked maps still continue.
func (p *Seats) Act(ctx context.Context) error {
	d := p.deps.Driver
	err := clickFirst(ctx, d, browser.ByCSS(seatCSS))
	switch {
	case err == nil:
		p.log.Info("Seat picked.")
	case errors.Is(err, browser.ErrNoMatch):
		p.log.Info("No selectable seat, keeping the assigned one.")
	default:
		return err
	}

	return clickOptional(ctx, p.log, d, "seat continue",
		browser.ByRole("button", regexp.MustCompile(`(?i)(continue|next|confirm seats?|skip)`)),
		browser.ByCSS(`button[type="submit"], [data-testid="seats-continue"]`),
	)
}
