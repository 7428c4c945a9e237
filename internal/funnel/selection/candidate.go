// File: internal/funnel/selection/candidate.go
package selection

import (
	"context"
)

// Candidate is one selectable unit in a rendered option list: an opaque
// handle to a UI element plus the text scraped from it on demand. Candidates
// are produced fresh on every selection attempt and never cached across
// navigations, because the underlying elements are destroyed on re-render.
type Candidate interface {
	// Text returns the raw text scraped from the rendered option.
	Text(ctx context.Context) (string, error)
	// Activate triggers the option's selection action.
	Activate(ctx context.Context) error
	// SubOptions returns the nested priced actions this candidate exposes
	// (fare tiers within a flight card), in rendered order. Empty when the
	// candidate itself is the only priced action.
	SubOptions(ctx context.Context) ([]Candidate, error)
}

// Policy names the rule that chose a selection winner.
type Policy string

const (
	// PolicyPriceRanked means the winner had the lowest parsed price.
	PolicyPriceRanked Policy = "price-ranked"
	// PolicyBadgeFallback means no price parsed anywhere and the winner
	// carried a "lowest price" badge.
	PolicyBadgeFallback Policy = "badge-fallback"
	// PolicyPositionalFallback means no price and no badge; the first
	// candidate in rendered order won.
	PolicyPositionalFallback Policy = "positional-fallback"
)

// Outcome reports which candidate won a selection and how. It is built for
// the caller's report and never persisted.
type Outcome struct {
	// Index is the winner's position in the original candidate order.
	Index int
	// SubOption is the index of the winning nested option within the winner,
	// or -1 when the candidate itself was activated.
	SubOption int
	// Policy names the rule that chose the winner.
	Policy Policy
	// Price is the winning parsed price; meaningful only when Priced is true.
	Price  float64
	Priced bool
}
