// File: internal/browser/cdp/driver.go

// Package cdp drives a Chrome session over the DevTools protocol. All DOM
// probing runs as one-shot JavaScript evaluations; clicks and keystrokes are
// dispatched as trusted input events at resolved coordinates.
package cdp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/config"
)

// Driver is a single Chrome tab session implementing browser.Driver.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	ctx         context.Context
	cancelSess  context.CancelFunc
	cancelAlloc context.CancelFunc

	rng *rand.Rand

	mu     sync.Mutex
	closed bool
}

var _ browser.Driver = (*Driver)(nil)

var errDriverClosed = errors.New("cdp: driver is closed")

// New launches a Chrome process and connects a fresh tab to it. The session
// lives until Close or until ctx is cancelled.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("cdp")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocatorOptions(cfg)...)
	sessCtx, cancelSess := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Errorf),
	)

	d := &Driver{
		cfg:         cfg,
		logger:      logger,
		ctx:         sessCtx,
		cancelSess:  cancelSess,
		cancelAlloc: cancelAlloc,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	// Force the target into existence so startup failures surface here
	// rather than on the first navigation.
	if err := chromedp.Run(sessCtx); err != nil {
		cancelSess()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	if len(cfg.Headers) > 0 {
		headers := make(network.Headers, len(cfg.Headers))
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		if err := chromedp.Run(sessCtx, network.SetExtraHTTPHeaders(headers)); err != nil {
			cancelSess()
			cancelAlloc()
			return nil, fmt.Errorf("applying extra headers: %w", err)
		}
	}

	logger.Debug("Chrome session ready.", zap.Bool("headless", cfg.Headless))
	return d, nil
}

// allocatorOptions maps the browser configuration onto Chrome launch flags.
func allocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		// Prevents crashes in containers with small /dev/shm.
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !cfg.Headless {
		// The defaults enable headless; overriding the flag disables it.
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	return opts
}

// Name identifies the engine in logs and reports.
func (d *Driver) Name() string {
	return config.EngineChromedp
}

// Navigate loads the URL and waits for the document to become interactive,
// plus the configured post-load quiet period.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	navCtx := ctx
	if d.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, d.cfg.NavigationTimeout)
		defer cancel()
	}

	actions := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	}
	if d.cfg.PostLoadWait > 0 {
		actions = append(actions, chromedp.Sleep(d.cfg.PostLoadWait))
	}

	if err := d.run(navCtx, actions); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigating to %s: %w", url, ctx.Err())
		}
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	d.logger.Debug("Navigation committed.", zap.String("url", url))
	return nil
}

// Location returns the page's current URL.
func (d *Driver) Location(ctx context.Context) (string, error) {
	var loc string
	if err := d.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("reading location: %w", err)
	}
	return loc, nil
}

// Visible reports whether at least one element matching sel is visible right
// now. It never waits.
func (d *Driver) Visible(ctx context.Context, sel browser.Selector) (bool, error) {
	q, err := compileQuery(sel)
	if err != nil {
		return false, err
	}
	var visible bool
	if err := d.evaluate(ctx, visibleScript(q), &visible); err != nil {
		return false, fmt.Errorf("probing %s: %w", sel, err)
	}
	return visible, nil
}

// Click dispatches a trusted mouse click at the centre of the first visible
// match.
func (d *Driver) Click(ctx context.Context, sel browser.Selector) error {
	q, err := compileQuery(sel)
	if err != nil {
		return err
	}
	var pt *clickPoint
	if err := d.evaluate(ctx, clickPointScript(q), &pt); err != nil {
		return fmt.Errorf("locating %s: %w", sel, err)
	}
	if pt == nil {
		return fmt.Errorf("clicking %s: %w", sel, browser.ErrNoMatch)
	}
	if err := d.run(ctx, chromedp.MouseClickXY(pt.X, pt.Y)); err != nil {
		return fmt.Errorf("clicking %s: %w", sel, err)
	}
	return nil
}

type clickPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Fill focuses the first visible match, clears it, and types the value with
// real key events so the page's input handlers fire.
func (d *Driver) Fill(ctx context.Context, sel browser.Selector, value string) error {
	q, err := compileQuery(sel)
	if err != nil {
		return err
	}
	var focused bool
	if err := d.evaluate(ctx, focusAndClearScript(q), &focused); err != nil {
		return fmt.Errorf("locating %s: %w", sel, err)
	}
	if !focused {
		return fmt.Errorf("filling %s: %w", sel, browser.ErrNoMatch)
	}
	if value == "" {
		return nil
	}
	if err := d.run(ctx, chromedp.KeyEvent(value)); err != nil {
		return fmt.Errorf("filling %s: %w", sel, err)
	}
	return nil
}

// Collect tags every visible match and returns stable handles to them, in
// document order.
func (d *Driver) Collect(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	q, err := compileQuery(sel)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := d.evaluate(ctx, collectScript(q, d.nextNonce()), &ids); err != nil {
		return nil, fmt.Errorf("collecting %s: %w", sel, err)
	}
	elements := make([]browser.Element, 0, len(ids))
	for _, id := range ids {
		elements = append(elements, &element{driver: d, id: id})
	}
	return elements, nil
}

// Close tears down the tab and the Chrome process. Safe to call repeatedly.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.logger.Debug("Closing chromedp session.")
	d.cancelSess()
	d.cancelAlloc()
	return nil
}

// nextNonce produces the per-discovery tag prefix.
func (d *Driver) nextNonce() string {
	return fmt.Sprintf("fs-%d-%d", time.Now().UnixNano(), d.rng.Int63())
}

// run executes chromedp actions under both the session lifetime and the
// caller's deadline.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return errDriverClosed
	}

	runCtx, cancel := combineContext(d.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// evaluate runs a script and unmarshals its return value. Promises are
// awaited and the actual value is returned by value, with page-side
// exceptions kept quiet.
func (d *Driver) evaluate(ctx context.Context, script string, out interface{}) error {
	return d.run(ctx, chromedp.Evaluate(script, out, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithReturnByValue(true).WithAwaitPromise(true).WithSilent(true)
	}))
}

// combineContext derives a context from the session context (which carries
// the CDP target) that is additionally cancelled when the operational
// context ends.
func combineContext(sessionCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(sessionCtx)
	go func() {
		select {
		case <-opCtx.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}
