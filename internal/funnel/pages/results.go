// File: internal/funnel/pages/results.go
package pages

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/selection"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

// cardCSS matches a rendered flight option card across the markup variants
// we have seen carriers use.
const cardCSS = `.fare-card, [data-testid="flight-card"], .flight-result, [class*="flight-row"], [data-flight-option]`

// tierCSS matches the selectable fare-tier cells nested inside a card.
const tierCSS = `.tier, .fare-tier, [data-testid="fare-tier"], .fare-option, [class*="fare-family"]`

// selectCSS matches a card's selection affordance.
const selectCSS = `button[data-testid="select"], .select-fare, button[class*="select"]`

var selectNameRe = regexp.MustCompile(`(?i)\bselect\b`)

// Results is the flight-results stage: await the rendered option list, rank
// it and activate the cheapest option.
type Results struct {
	deps   Deps
	ranker *selection.Ranker
	// cabin scopes the selection to one fare category; empty or "economy"
	// ranks the default view.
	cabin       string
	scopeBudget time.Duration
	log         *zap.Logger

	outcome *selection.Outcome
}

// NewResults builds the results stage. The ranker must carry a resolver when
// cabin scoping is in play.
func NewResults(deps Deps, ranker *selection.Ranker, cabin string, scopeBudget time.Duration) *Results {
	return &Results{
		deps:        deps,
		ranker:      ranker,
		cabin:       strings.ToLower(strings.TrimSpace(cabin)),
		scopeBudget: scopeBudget,
		log:         deps.logger().Named("results"),
	}
}

func (p *Results) Name() string   { return "results" }
func (p *Results) Optional() bool { return false }

// Ready observes the rendered results list.
func (p *Results) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "results-list",
		Strategies: []state.DetectionStrategy{
			state.SelectorVisible(d, cardCSS, state.WithBudget(p.deps.StrategyBudget)),
			state.LocationMatches(d, regexp.MustCompile(`(?i)(results|flights|select|availability)`), state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)select\s+(your\s+)?flight`)),
		},
	}
}

// Candidates collects the rendered option cards as selection candidates, in
// display order.
func (p *Results) Candidates(ctx context.Context) ([]selection.Candidate, error) {
	elements, err := p.deps.Driver.Collect(ctx, browser.ByCSS(cardCSS))
	if err != nil {
		return nil, fmt.Errorf("collecting option cards: %w", err)
	}
	candidates := make([]selection.Candidate, 0, len(elements))
	for _, el := range elements {
		candidates = append(candidates, &cardCandidate{el: el, log: p.log})
	}
	return candidates, nil
}

// CabinScope builds the fare-category scope for non-default cabins. The
// default results view already shows economy fares.
func (p *Results) CabinScope() *selection.Scope {
	if p.cabin == "" || p.cabin == "economy" {
		return nil
	}
	d := p.deps.Driver
	namePattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p.cabin))
	return &selection.Scope{
		Label: p.cabin,
		Activate: func(ctx context.Context) error {
			return clickFirst(ctx, d,
				browser.ByRole("tab", namePattern),
				browser.ByText(namePattern),
			)
		},
		Rendered: state.TargetState{
			Label: p.cabin + "-fares",
			Strategies: []state.DetectionStrategy{
				state.SelectorVisible(d, `[role="tabpanel"] `+cardCSS, state.WithBudget(p.deps.StrategyBudget)),
				state.SelectorVisible(d, cardCSS),
			},
		},
		Budget: p.scopeBudget,
	}
}

// Act ranks the candidates and activates the cheapest one.
func (p *Results) Act(ctx context.Context) error {
	candidates, err := p.Candidates(ctx)
	if err != nil {
		return err
	}
	outcome, err := p.ranker.SelectCheapest(ctx, candidates, p.CabinScope())
	if err != nil {
		return err
	}
	p.outcome = outcome
	p.log.Info("Option selected.",
		zap.Int("index", outcome.Index),
		zap.String("policy", string(outcome.Policy)),
		zap.Float64("price", outcome.Price),
		zap.Bool("priced", outcome.Priced))
	return nil
}

// Outcome returns the selection outcome of the last Act, or nil before one.
func (p *Results) Outcome() *selection.Outcome {
	return p.outcome
}

// cardCandidate adapts one rendered option card to the selection contract.
// All reads go through the live element handle, so a scope switch that
// re-renders the card's prices is reflected on the next sample.
type cardCandidate struct {
	el  browser.Element
	log *zap.Logger
}

var _ selection.Candidate = (*cardCandidate)(nil)

func (c *cardCandidate) Text(ctx context.Context) (string, error) {
	return c.el.Text(ctx)
}

// Activate clicks the card's selection affordance, or the card itself when
// it has none.
func (c *cardCandidate) Activate(ctx context.Context) error {
	buttons, err := c.el.Find(ctx, browser.ByCSS(selectCSS))
	if err == nil && len(buttons) > 0 {
		return buttons[0].Click(ctx)
	}
	buttons, err = c.el.Find(ctx, browser.ByRole("button", selectNameRe))
	if err == nil && len(buttons) > 0 {
		return buttons[0].Click(ctx)
	}
	return c.el.Click(ctx)
}

// SubOptions returns the card's fare tiers, one candidate per tier cell. The
// card's HTML fragment is parsed first; cards that do not advertise tiers
// skip the extra element lookups entirely.
func (c *cardCandidate) SubOptions(ctx context.Context) ([]selection.Candidate, error) {
	fragment, err := c.el.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading card fragment: %w", err)
	}
	tiers := parseTiers(fragment)
	if len(tiers) == 0 {
		return nil, nil
	}
	if c.log != nil {
		labels := make([]string, 0, len(tiers))
		for _, t := range tiers {
			labels = append(labels, t.Label)
		}
		c.log.Debug("Card advertises fare tiers.", zap.Strings("labels", labels))
	}
	cells, err := c.el.Find(ctx, browser.ByCSS(tierCSS))
	if err != nil {
		return nil, fmt.Errorf("resolving tier cells: %w", err)
	}
	subs := make([]selection.Candidate, 0, len(cells))
	for _, cell := range cells {
		subs = append(subs, &tierCandidate{el: cell})
	}
	return subs, nil
}

// tierCandidate is one selectable fare tier inside a card.
type tierCandidate struct {
	el browser.Element
}

var _ selection.Candidate = (*tierCandidate)(nil)

func (t *tierCandidate) Text(ctx context.Context) (string, error) {
	return t.el.Text(ctx)
}

func (t *tierCandidate) Activate(ctx context.Context) error {
	return t.el.Click(ctx)
}

func (t *tierCandidate) SubOptions(ctx context.Context) ([]selection.Candidate, error) {
	return nil, nil
}
