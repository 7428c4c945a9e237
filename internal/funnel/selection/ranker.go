// File: internal/funnel/selection/ranker.go
package selection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
	"go.uber.org/zap"
)

// Scope narrows a selection to one sub-category of the rendered options,
// such as a cabin tier. Activation happens before sampling and must be
// confirmed through a resolver wait. Candidates are lazy handles, so
// sampling after confirmation reads the scoped rendering through them.
type Scope struct {
	// Label names the sub-category for logs and errors.
	Label string
	// Activate switches the UI to the sub-category (clicks its tab control).
	Activate func(ctx context.Context) error
	// Rendered confirms the scoped option set has finished rendering.
	Rendered state.TargetState
	// Budget bounds the render confirmation wait.
	Budget time.Duration
}

// Ranker deterministically picks the cheapest candidate from a rendered
// option list. It reuses the state resolver for scope-render confirmation
// and performs exactly one activation per selection, on the winner.
type Ranker struct {
	resolver *state.Resolver
	logger   *zap.Logger
}

// NewRanker builds a ranker. The resolver may be nil when no scoped
// selections will be made.
func NewRanker(resolver *state.Resolver, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{resolver: resolver, logger: logger.Named("selection")}
}

// sample is one candidate's reading: its text, its best price and the handle
// to activate should it win.
type sample struct {
	index    int
	text     string
	priced   bool
	price    float64
	subIndex int
	target   Candidate
}

// SelectCheapest ranks candidates by parsed price and activates the winner.
//
// Candidates carrying nested sub-options are priced per sub-option; the
// cheapest sub-option represents its candidate in the ranking and is the
// element activated on a win. Ties break by original list order (stable
// sort). When no candidate yields a price the ordered fallbacks apply: first
// a candidate carrying a "lowest" badge, then the first candidate in rendered
// order, so a non-empty input always produces an outcome. Per-candidate
// read and parse failures are swallowed so the remaining candidates still
// get a fair chance; only an empty input (NoSelectableOptionError), a failed
// scope activation (ScopeActivationError), cancellation, or a failed winner
// activation surface as errors.
func (r *Ranker) SelectCheapest(ctx context.Context, candidates []Candidate, scope *Scope) (*Outcome, error) {
	if len(candidates) == 0 {
		return nil, &NoSelectableOptionError{Candidates: 0}
	}

	log := r.logger.With(zap.Int("candidates", len(candidates)))
	if scope != nil {
		if err := r.activateScope(ctx, scope); err != nil {
			return nil, err
		}
		log = log.With(zap.String("scope", scope.Label))
	}

	samples := r.sampleCandidates(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("selection aborted: %w", err)
	}

	priced := make([]sample, 0, len(samples))
	for _, s := range samples {
		if s.priced {
			priced = append(priced, s)
		}
	}

	if len(priced) > 0 {
		// Stable: ties keep original rendered order.
		sort.SliceStable(priced, func(i, j int) bool { return priced[i].price < priced[j].price })
		winner := priced[0]
		log.Info("Selecting cheapest candidate.",
			zap.Int("index", winner.index),
			zap.Int("subOption", winner.subIndex),
			zap.Float64("price", winner.price),
			zap.Int("priced", len(priced)))
		if err := winner.target.Activate(ctx); err != nil {
			return nil, fmt.Errorf("activating candidate %d: %w", winner.index, err)
		}
		return &Outcome{
			Index:     winner.index,
			SubOption: winner.subIndex,
			Policy:    PolicyPriceRanked,
			Price:     winner.price,
			Priced:    true,
		}, nil
	}

	// No price anywhere. First fallback: a "lowest" badge, in rendered order.
	for _, s := range samples {
		if !HasLowestBadge(s.text) {
			continue
		}
		log.Info("No parsable prices; selecting badge-marked candidate.", zap.Int("index", s.index))
		if err := candidates[s.index].Activate(ctx); err != nil {
			return nil, fmt.Errorf("activating candidate %d: %w", s.index, err)
		}
		return &Outcome{Index: s.index, SubOption: -1, Policy: PolicyBadgeFallback}, nil
	}

	// Last resort: first candidate in rendered order.
	log.Warn("No prices and no badge; selecting first candidate.")
	if err := candidates[0].Activate(ctx); err != nil {
		return nil, fmt.Errorf("activating candidate 0: %w", err)
	}
	return &Outcome{Index: 0, SubOption: -1, Policy: PolicyPositionalFallback}, nil
}

// activateScope switches the UI to the scoped sub-category and confirms the
// scoped option set rendered. Cancellation propagates as itself; any other
// failure becomes a ScopeActivationError.
func (r *Ranker) activateScope(ctx context.Context, scope *Scope) error {
	if scope.Activate != nil {
		if err := scope.Activate(ctx); err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("scope %q activation: %w", scope.Label, ctx.Err())
			}
			return &ScopeActivationError{Scope: scope.Label, Err: err}
		}
	}
	if r.resolver == nil {
		return &ScopeActivationError{Scope: scope.Label, Err: fmt.Errorf("no resolver to confirm scoped rendering")}
	}
	if _, err := r.resolver.AwaitState(ctx, scope.Rendered, scope.Budget); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("scope %q activation: %w", scope.Label, ctx.Err())
		}
		return &ScopeActivationError{Scope: scope.Label, Err: err}
	}
	return nil
}

// sampleCandidates reads every candidate once, in rendered order. Nested
// sub-options are priced individually and the cheapest one stands in for its
// candidate. All read failures are local: a candidate that cannot be read
// simply carries no price.
func (r *Ranker) sampleCandidates(ctx context.Context, candidates []Candidate) []sample {
	samples := make([]sample, 0, len(candidates))
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		s := sample{index: i, subIndex: -1, target: c}

		if text, err := c.Text(ctx); err == nil {
			s.text = text
		} else {
			r.logger.Debug("Candidate text unreadable.", zap.Int("index", i), zap.Error(err))
		}

		subs, err := c.SubOptions(ctx)
		if err != nil {
			r.logger.Debug("Candidate sub-options unreadable.", zap.Int("index", i), zap.Error(err))
			subs = nil
		}

		if len(subs) > 0 {
			for j, sub := range subs {
				text, err := sub.Text(ctx)
				if err != nil {
					continue
				}
				price, ok := ParsePrice(text)
				if !ok {
					continue
				}
				if !s.priced || price < s.price {
					s.priced = true
					s.price = price
					s.subIndex = j
					s.target = sub
				}
			}
		} else if price, ok := ParsePrice(s.text); ok {
			s.priced = true
			s.price = price
		}

		samples = append(samples, s)
	}
	return samples
}
