// File: internal/orchestrator/orchestrator.go

// Package orchestrator drives complete funnel runs. It owns no detection or
// selection logic itself: it assembles a driver session, the state resolver
// and the page steps, then walks the funnel to the payment checkpoint while
// recording what happened for the report.
package orchestrator

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/config"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/pages"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/selection"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
	"github.com/xkilldash9x/farescout-cli/internal/reporting"
)

const (
	preflightTimeout   = 30 * time.Second
	driverCloseTimeout = 15 * time.Second
)

// DriverFactory builds one engine session. Each funnel run gets a fresh,
// fully isolated session; factories are never shared handles.
type DriverFactory func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (browser.Driver, error)

// Orchestrator runs the booking funnel once per configured engine.
type Orchestrator struct {
	cfg       *config.Config
	logger    *zap.Logger
	factories map[string]DriverFactory
	probe     *resty.Client
	// limiter paces steps across all engine sessions; the politeness budget
	// belongs to the target site, not to each session.
	limiter *rate.Limiter
}

// New wires an Orchestrator. Factories maps engine names to constructors;
// pass Factories() outside tests.
func New(cfg *config.Config, logger *zap.Logger, factories map[string]DriverFactory) (*Orchestrator, error) {
	if cfg == nil || logger == nil {
		return nil, fmt.Errorf("orchestrator requires a config and a logger")
	}
	if len(factories) == 0 {
		return nil, fmt.Errorf("orchestrator requires at least one driver factory")
	}

	probe := resty.New().
		SetTimeout(preflightTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	if cfg.Browser.UserAgent != "" {
		probe.SetHeader("User-Agent", cfg.Browser.UserAgent)
	}
	if cfg.Browser.IgnoreTLSErrors {
		probe.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	for k, v := range cfg.Browser.Headers {
		probe.SetHeader(k, v)
	}

	return &Orchestrator{
		cfg:       cfg,
		logger:    logger.Named("orchestrator"),
		factories: factories,
		probe:     probe,
		limiter:   rate.NewLimiter(rate.Limit(cfg.Funnel.StepRate), cfg.Funnel.StepBurst),
	}, nil
}

// Run executes the funnel once per configured engine and returns the
// combined report. Engine failures are recorded in the report, not returned;
// the only error paths are a failed preflight and cancellation of ctx.
func (o *Orchestrator) Run(ctx context.Context, runID string) (*reporting.RunReport, error) {
	targetURL := o.cfg.Run.TargetURL
	if targetURL == "" {
		return nil, fmt.Errorf("run %s: no target URL configured", runID)
	}

	query := pages.BuildQuery(o.cfg.Search, time.Now())
	report := &reporting.RunReport{
		RunID:     runID,
		TargetURL: targetURL,
		Itinerary: reporting.ItineraryFromQuery(query, o.cfg.Search.Cabin),
		StartedAt: time.Now().UTC(),
	}

	if err := o.preflight(ctx, targetURL); err != nil {
		return nil, err
	}

	o.logger.Info("Starting funnel runs.",
		zap.String("runID", runID),
		zap.String("target", targetURL),
		zap.Strings("engines", o.cfg.Browser.Engines))

	runs := make([]reporting.EngineRun, len(o.cfg.Browser.Engines))
	g, gctx := errgroup.WithContext(ctx)
	for i, engine := range o.cfg.Browser.Engines {
		i, engine := i, engine
		g.Go(func() error {
			runs[i] = o.runEngine(gctx, engine, query, targetURL)
			// Per-engine failures stay in the record; only an external
			// abort surfaces as an error.
			return gctx.Err()
		})
	}
	err := g.Wait()

	report.Runs = runs
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		return report, fmt.Errorf("run %s interrupted: %w", runID, err)
	}
	return report, nil
}

// preflight verifies the target answers over plain HTTP before paying for a
// browser session. Only transport failures and server errors abort; bot
// checks answer 4xx and can still render in a real browser.
func (o *Orchestrator) preflight(ctx context.Context, targetURL string) error {
	res, err := o.probe.R().SetContext(ctx).Get(targetURL)
	if err != nil {
		return fmt.Errorf("preflight %s: %w", targetURL, err)
	}
	if res.StatusCode() >= 500 {
		return fmt.Errorf("preflight %s: target answered %s", targetURL, res.Status())
	}
	o.logger.Debug("Preflight passed.",
		zap.Int("status", res.StatusCode()),
		zap.Duration("elapsed", res.Time()))
	return nil
}

// runEngine walks the full funnel in one engine session. All failures are
// folded into the returned record.
func (o *Orchestrator) runEngine(ctx context.Context, engine string, query pages.Query, targetURL string) reporting.EngineRun {
	log := o.logger.Named(engine)
	run := reporting.EngineRun{Engine: engine, Outcome: reporting.RunAborted}
	start := time.Now()
	defer func() { run.ElapsedMS = time.Since(start).Milliseconds() }()

	factory, ok := o.factories[engine]
	if !ok {
		run.Error = fmt.Sprintf("no driver factory registered for engine %q", engine)
		log.Error("Engine not available.")
		return run
	}

	log.Info("Starting engine session.")
	driver, err := factory(ctx, o.cfg.Browser, log)
	if err != nil {
		run.Error = fmt.Sprintf("starting session: %v", err)
		log.Error("Session start failed.", zap.Error(err))
		return run
	}
	defer func() {
		// The close deadline is independent of ctx so an aborted run still
		// tears its session down.
		closeCtx, cancel := context.WithTimeout(context.Background(), driverCloseTimeout)
		defer cancel()
		if cerr := driver.Close(closeCtx); cerr != nil {
			log.Warn("Session close failed.", zap.Error(cerr))
		}
	}()

	resolver := state.NewResolver(driver, log)
	ranker := selection.NewRanker(resolver, log)
	deps := pages.Deps{Driver: driver, Logger: log, StrategyBudget: o.cfg.Funnel.StrategyBudget}

	results := pages.NewResults(deps, ranker, o.cfg.Search.Cabin, o.cfg.Funnel.StateBudget)
	steps := []pages.Step{
		pages.NewSearch(deps, query),
		results,
		pages.NewPassenger(deps, pages.DefaultContact()),
		pages.NewSeats(deps),
		pages.NewExtras(deps),
		pages.NewPayment(deps),
	}

	if err := driver.Navigate(ctx, targetURL); err != nil {
		run.Error = fmt.Sprintf("navigating to %s: %v", targetURL, err)
		log.Error("Navigation failed.", zap.Error(err))
		return run
	}
	if !o.dismissOverlay(ctx, resolver, &run, log) {
		return run
	}

	for i, step := range steps {
		if err := o.limiter.Wait(ctx); err != nil {
			run.Error = fmt.Sprintf("pacing wait: %v", err)
			return run
		}
		if !o.executeStep(ctx, resolver, step, &run, log) {
			return run
		}
		// Consent overlays can re-render after any state-changing action;
		// the checkpoint stage acts on nothing, so no scan after it.
		if i < len(steps)-1 {
			if !o.dismissOverlay(ctx, resolver, &run, log) {
				return run
			}
		}
	}

	run.Outcome = reporting.RunCompleted
	run.Selection = reporting.SelectionFromOutcome(results.Outcome())
	log.Info("Funnel completed to the payment checkpoint.",
		zap.Int("steps", len(run.Steps)),
		zap.Int("overlayDismissals", run.Dismissals))
	return run
}

// executeStep awaits one stage's ready state and performs its action,
// appending the step record. Returns false when the run must stop.
func (o *Orchestrator) executeStep(ctx context.Context, resolver *state.Resolver, step pages.Step, run *reporting.EngineRun, log *zap.Logger) bool {
	stepStart := time.Now()
	record := reporting.StepResult{Name: step.Name()}

	obs, err := resolver.AwaitState(ctx, step.Ready(), o.cfg.Funnel.StateBudget)
	if err != nil {
		record.ElapsedMS = time.Since(stepStart).Milliseconds()
		var notReached *state.StateNotReachedError
		if errors.As(err, &notReached) && step.Optional() {
			record.Status = reporting.StepSkipped
			run.Steps = append(run.Steps, record)
			log.Info("Optional stage not present, moving on.", zap.String("stage", step.Name()))
			return true
		}
		record.Status = reporting.StepFailed
		record.Error = err.Error()
		run.Steps = append(run.Steps, record)
		run.Error = fmt.Sprintf("stage %s: %v", step.Name(), err)
		log.Error("Stage state never confirmed.", zap.String("stage", step.Name()), zap.Error(err))
		return false
	}
	record.Strategy = obs.Strategy

	if err := step.Act(ctx); err != nil {
		record.Status = reporting.StepFailed
		record.Error = err.Error()
		record.ElapsedMS = time.Since(stepStart).Milliseconds()
		run.Steps = append(run.Steps, record)
		run.Error = fmt.Sprintf("stage %s: %v", step.Name(), err)
		log.Error("Stage action failed.", zap.String("stage", step.Name()), zap.Error(err))
		return false
	}

	record.Status = reporting.StepCompleted
	record.ElapsedMS = time.Since(stepStart).Milliseconds()
	run.Steps = append(run.Steps, record)
	log.Info("Stage completed.",
		zap.String("stage", step.Name()),
		zap.String("confirmedBy", obs.Strategy),
		zap.Duration("elapsed", time.Duration(record.ElapsedMS)*time.Millisecond))
	return true
}

// dismissOverlay runs one overlay scan and folds the outcome into the run.
// Returns false only on cancellation.
func (o *Orchestrator) dismissOverlay(ctx context.Context, resolver *state.Resolver, run *reporting.EngineRun, log *zap.Logger) bool {
	dismissed, err := resolver.AcceptTransientOverlay(ctx, o.cfg.Funnel.OverlayBudget)
	if err != nil {
		run.Error = fmt.Sprintf("overlay scan: %v", err)
		return false
	}
	if dismissed {
		run.Dismissals++
		log.Info("Consent overlay dismissed.")
	}
	return true
}
