// File: internal/funnel/pages/search.go
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/config"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

// dateFormat is what date inputs accept.
const dateFormat = "2006-01-02"

// Query is one concrete flight search.
type Query struct {
	Origin      string
	Destination string
	Departure   time.Time
	// Return is zero for one-way searches.
	Return     time.Time
	Travellers int
}

// BuildQuery turns the relative search configuration into concrete dates.
func BuildQuery(cfg config.SearchConfig, now time.Time) Query {
	departure := now.AddDate(0, 0, cfg.DaysAhead)
	q := Query{
		Origin:      cfg.Origin,
		Destination: cfg.Destination,
		Departure:   departure,
		Travellers:  cfg.Travellers,
	}
	if cfg.ReturnAfterDays > 0 {
		q.Return = departure.AddDate(0, 0, cfg.ReturnAfterDays)
	}
	return q
}

// Search is the flight-search form stage.
type Search struct {
	deps  Deps
	query Query
	log   *zap.Logger
}

// NewSearch builds the search stage for one query.
func NewSearch(deps Deps, query Query) *Search {
	return &Search{deps: deps, query: query, log: deps.logger().Named("search")}
}

func (p *Search) Name() string   { return "search" }
func (p *Search) Optional() bool { return false }

// Ready observes the rendered search form.
func (p *Search) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "search-form",
		Strategies: []state.DetectionStrategy{
			state.RoleVisible(d, "searchbox", regexp.MustCompile(`(?i)(from|origin)`), state.WithBudget(p.deps.StrategyBudget)),
			state.SelectorVisible(d, `form#search, form[action*="search"], [data-testid="search-form"]`, state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)(book|search)\s+(a\s+)?flight`)),
		},
	}
}

// Act fills the search form and submits it.
func (p *Search) Act(ctx context.Context) error {
	d := p.deps.Driver
	q := p.query

	if err := fillFirst(ctx, d, q.Origin,
		browser.ByCSS(`#origin, [data-testid="origin"], input[name="origin"], input[name="from"]`),
		browser.ByRole("searchbox", regexp.MustCompile(`(?i)(from|origin)`)),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)(from|origin)`)),
	); err != nil {
		return fmt.Errorf("filling origin: %w", err)
	}

	if err := fillFirst(ctx, d, q.Destination,
		browser.ByCSS(`#destination, [data-testid="destination"], input[name="destination"], input[name="to"]`),
		browser.ByRole("searchbox", regexp.MustCompile(`(?i)(to|destination)`)),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)(to|destination)`)),
	); err != nil {
		return fmt.Errorf("filling destination: %w", err)
	}

	if err := fillFirst(ctx, d, q.Departure.Format(dateFormat),
		browser.ByCSS(`#departure-date, [data-testid="departure-date"], input[name="departureDate"], input[name="departure"]`),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)depart`)),
		browser.ByCSS(`input[type="date"]`),
	); err != nil {
		return fmt.Errorf("filling departure date: %w", err)
	}

	if !q.Return.IsZero() {
		if err := fillOptional(ctx, p.log, d, "return-date", q.Return.Format(dateFormat),
			browser.ByCSS(`#return-date, [data-testid="return-date"], input[name="returnDate"], input[name="return"]`),
			browser.ByRole("textbox", regexp.MustCompile(`(?i)return`)),
		); err != nil {
			return fmt.Errorf("filling return date: %w", err)
		}
	}

	if q.Travellers > 1 {
		if err := fillOptional(ctx, p.log, d, "travellers", strconv.Itoa(q.Travellers),
			browser.ByCSS(`#travellers, [data-testid="travellers"], input[name="passengers"], select[name="passengers"]`),
		); err != nil {
			return fmt.Errorf("setting travellers: %w", err)
		}
	}

	p.log.Info("Submitting flight search.",
		zap.String("origin", q.Origin),
		zap.String("destination", q.Destination),
		zap.String("departure", q.Departure.Format(dateFormat)))

	if err := clickFirst(ctx, d,
		browser.ByRole("button", regexp.MustCompile(`(?i)(search|find flights?|show flights?)`)),
		browser.ByCSS(`button[type="submit"], [data-testid="search-submit"]`),
	); err != nil {
		return fmt.Errorf("submitting search: %w", err)
	}
	return nil
}
