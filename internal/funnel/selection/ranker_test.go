// File: internal/funnel/selection/ranker_test.go
package selection

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCandidate is an in-memory candidate with call tracking, so tests can
// assert the exactly-one-activation guarantee without any UI.
type fakeCandidate struct {
	mu          sync.Mutex
	text        string
	textErr     error
	subs        []Candidate
	subsErr     error
	activateErr error
	activations int
}

func newFakeCandidate(text string) *fakeCandidate {
	return &fakeCandidate{text: text}
}

func (f *fakeCandidate) Text(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *fakeCandidate) Activate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.activateErr != nil {
		return f.activateErr
	}
	f.activations++
	return nil
}

func (f *fakeCandidate) SubOptions(ctx context.Context) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs, f.subsErr
}

func (f *fakeCandidate) activated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations
}

// scriptedSignal implements state.DetectionStrategy for scope tests.
type scriptedSignal struct {
	name    string
	delay   time.Duration
	succeed bool
}

func (s scriptedSignal) Name() string          { return s.name }
func (s scriptedSignal) Budget() time.Duration { return 0 }

func (s scriptedSignal) Attempt(ctx context.Context) error {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if s.succeed {
			return nil
		}
		return errors.New("signal absent")
	}
}

func newTestRanker(t *testing.T) *Ranker {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return NewRanker(state.NewResolver(nil, logger), logger)
}

func totalActivations(cands ...*fakeCandidate) int {
	total := 0
	for _, c := range cands {
		total += c.activated()
	}
	return total
}

func TestSelectCheapestPicksMinimum(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("Morning departure $120")
	c1 := newFakeCandidate("Midday departure $95")
	c2 := newFakeCandidate("Evening departure $300")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0, c1, c2}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Index)
	assert.Equal(t, PolicyPriceRanked, outcome.Policy)
	assert.Equal(t, 95.0, outcome.Price)
	assert.True(t, outcome.Priced)
	assert.Equal(t, -1, outcome.SubOption)
	assert.Equal(t, 1, c1.activated())
	assert.Equal(t, 1, totalActivations(c0, c1, c2), "exactly one activation, on the winner only")
}

func TestSelectCheapestTieBreaksByOriginalOrder(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("Option A - CA $250")
	c1 := newFakeCandidate("Option B - CA $250")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0, c1}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Index, "equal prices keep rendered order")
	assert.Equal(t, 1, c0.activated())
	assert.Zero(t, c1.activated())
}

func TestSelectCheapestNestedTiers(t *testing.T) {
	r := newTestRanker(t)
	standardTier := newFakeCandidate("Standard CAD 450")
	flexTier := newFakeCandidate("Flex CA $380")
	withTiers := newFakeCandidate("AC101 · 2 fares available")
	withTiers.subs = []Candidate{standardTier, flexTier}
	flat := newFakeCandidate("AC205 from $400")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{withTiers, flat}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Index, "candidate ranks by its cheapest sub-option")
	assert.Equal(t, 1, outcome.SubOption)
	assert.Equal(t, 380.0, outcome.Price)
	assert.Equal(t, 1, flexTier.activated(), "the winning sub-option receives the click")
	assert.Zero(t, withTiers.activated(), "the card itself is never clicked when a tier wins")
	assert.Zero(t, standardTier.activated())
	assert.Zero(t, flat.activated())
}

func TestSelectCheapestSwallowsPerCandidateFailures(t *testing.T) {
	r := newTestRanker(t)
	broken := newFakeCandidate("")
	broken.textErr = errors.New("stale handle")
	brokenSubs := newFakeCandidate("AC300 $180") // price hidden behind failing sub-options
	brokenSubs.subsErr = errors.New("detached card")
	good := newFakeCandidate("AC310 $250")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{broken, brokenSubs, good}, nil)

	require.NoError(t, err, "local candidate failures must not fail the selection")
	// brokenSubs still priced from its own text once sub-option reading failed.
	assert.Equal(t, 1, outcome.Index)
	assert.Equal(t, 180.0, outcome.Price)
}

func TestSelectCheapestBadgeFallback(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("Flight AC123, sold out")
	c1 := newFakeCandidate("Flight AC125 - Lowest price")
	c2 := newFakeCandidate("Flight AC127")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0, c1, c2}, nil)

	require.NoError(t, err)
	assert.Equal(t, PolicyBadgeFallback, outcome.Policy)
	assert.Equal(t, 1, outcome.Index)
	assert.False(t, outcome.Priced)
	assert.Equal(t, 1, c1.activated())
	assert.Equal(t, 1, totalActivations(c0, c1, c2))
}

func TestSelectCheapestBadgeTieKeepsFirst(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("Cheapest option here")
	c1 := newFakeCandidate("Also the cheapest, honest")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0, c1}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, outcome.Index, "multiple badges keep rendered order")
}

func TestSelectCheapestPositionalFallback(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("Flight AC123")
	c1 := newFakeCandidate("Flight AC125")

	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0, c1}, nil)

	require.NoError(t, err)
	assert.Equal(t, PolicyPositionalFallback, outcome.Policy)
	assert.Equal(t, 0, outcome.Index)
	assert.Equal(t, 1, c0.activated())
	assert.Zero(t, c1.activated())
}

func TestSelectCheapestEmptyInput(t *testing.T) {
	r := newTestRanker(t)

	outcome, err := r.SelectCheapest(context.Background(), nil, nil)

	require.Error(t, err)
	assert.Nil(t, outcome)
	var noOption *NoSelectableOptionError
	require.ErrorAs(t, err, &noOption)
	assert.Zero(t, noOption.Candidates)
}

func TestSelectCheapestActivationFailureSurfaces(t *testing.T) {
	r := newTestRanker(t)
	c0 := newFakeCandidate("$120")
	c0.activateErr = errors.New("click intercepted")

	_, err := r.SelectCheapest(context.Background(), []Candidate{c0}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "activating candidate 0")
}

func TestSelectCheapestScopeConfirmed(t *testing.T) {
	r := newTestRanker(t)

	var sequence []string
	var mu sync.Mutex
	record := func(step string) {
		mu.Lock()
		defer mu.Unlock()
		sequence = append(sequence, step)
	}

	scope := &Scope{
		Label: "business",
		Activate: func(ctx context.Context) error {
			record("activate")
			return nil
		},
		Rendered: state.TargetState{
			Label:      "business-fares",
			Strategies: []state.DetectionStrategy{scriptedSignal{name: "tab-active", delay: 20 * time.Millisecond, succeed: true}},
		},
		Budget: time.Second,
	}

	c0 := newFakeCandidate("Business CA $2,341")
	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0}, scope)

	require.NoError(t, err)
	assert.Equal(t, 2341.0, outcome.Price)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"activate"}, sequence, "scope switch runs before sampling")
}

func TestSelectCheapestScopeActivationError(t *testing.T) {
	r := newTestRanker(t)
	scope := &Scope{
		Label: "premium",
		Rendered: state.TargetState{
			Label:      "premium-fares",
			Strategies: []state.DetectionStrategy{scriptedSignal{name: "never", delay: time.Hour}},
		},
		Budget: 100 * time.Millisecond,
	}

	c0 := newFakeCandidate("$100")
	outcome, err := r.SelectCheapest(context.Background(), []Candidate{c0}, scope)

	require.Error(t, err)
	assert.Nil(t, outcome)
	var scopeErr *ScopeActivationError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, "premium", scopeErr.Scope)
	var notReached *state.StateNotReachedError
	assert.ErrorAs(t, err, &notReached, "the unconfirmed render should be the underlying cause")
	assert.Zero(t, c0.activated(), "nothing may be clicked when the scope never confirms")
}

func TestSelectCheapestScopeCancellation(t *testing.T) {
	r := newTestRanker(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	scope := &Scope{
		Label: "economy",
		Rendered: state.TargetState{
			Label:      "economy-fares",
			Strategies: []state.DetectionStrategy{scriptedSignal{name: "never", delay: time.Hour}},
		},
		Budget: 5 * time.Second,
	}

	_, err := r.SelectCheapest(ctx, []Candidate{newFakeCandidate("$1")}, scope)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "external abort surfaces as cancellation")
	var scopeErr *ScopeActivationError
	assert.False(t, errors.As(err, &scopeErr), "cancellation must not masquerade as a scope failure")
}

func TestSelectCheapestCancelledBeforeSampling(t *testing.T) {
	r := newTestRanker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c0 := newFakeCandidate("$100")
	_, err := r.SelectCheapest(ctx, []Candidate{c0}, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, c0.activated())
}
