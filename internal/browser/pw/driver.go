// File: internal/browser/pw/driver.go

// Package pw drives a Chromium session through Playwright. Playwright's own
// locator engine supplies the ARIA role and text matching; timeouts from the
// caller's context are translated into per-operation locator timeouts since
// the Playwright client has no context plumbing of its own.
package pw

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/config"
)

const (
	// defaultActionTimeout bounds clicks and fills when the caller's context
	// has no deadline.
	defaultActionTimeout = 10 * time.Second
	// probeTimeout bounds element reads after discovery. Attached nodes
	// resolve immediately; only stale handles run it out.
	probeTimeout = 2 * time.Second
)

// Driver is a single Playwright-managed Chromium page implementing
// browser.Driver.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	mu     sync.Mutex
	closed bool
}

var _ browser.Driver = (*Driver)(nil)

var errDriverClosed = errors.New("pw: driver is closed")

// New starts the Playwright driver process, launches Chromium and opens one
// page. The Playwright driver and browsers must already be installed.
func New(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("pw")

	runner, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	b, err := runner.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
		Args:     []string{"--disable-dev-shm-usage"},
	})
	if err != nil {
		_ = runner.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	pageOpts := playwright.BrowserNewPageOptions{}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		pageOpts.Viewport = &playwright.Size{Width: cfg.WindowWidth, Height: cfg.WindowHeight}
	}
	if cfg.UserAgent != "" {
		pageOpts.UserAgent = playwright.String(cfg.UserAgent)
	}
	if cfg.IgnoreTLSErrors {
		pageOpts.IgnoreHttpsErrors = playwright.Bool(true)
	}
	if len(cfg.Headers) > 0 {
		pageOpts.ExtraHttpHeaders = cfg.Headers
	}

	page, err := b.NewPage(pageOpts)
	if err != nil {
		_ = b.Close()
		_ = runner.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	if cfg.NavigationTimeout > 0 {
		page.SetDefaultTimeout(float64(cfg.NavigationTimeout.Milliseconds()))
	}

	logger.Debug("Chromium session ready.", zap.Bool("headless", cfg.Headless))
	return &Driver{
		cfg:     cfg,
		logger:  logger,
		pw:      runner,
		browser: b,
		page:    page,
	}, nil
}

// Name identifies the engine in logs and reports.
func (d *Driver) Name() string {
	return config.EnginePlaywright
}

// Navigate loads the URL, waits for the DOM to be ready and applies the
// configured post-load quiet period.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.guard(ctx); err != nil {
		return err
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMillis(ctx, d.cfg.NavigationTimeout),
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if d.cfg.PostLoadWait > 0 {
		d.page.WaitForTimeout(float64(d.cfg.PostLoadWait.Milliseconds()))
	}
	return nil
}

// Location returns the page's current URL.
func (d *Driver) Location(ctx context.Context) (string, error) {
	if err := d.guard(ctx); err != nil {
		return "", err
	}
	return d.page.URL(), nil
}

// Visible reports whether any element matching sel is visible right now.
func (d *Driver) Visible(ctx context.Context, sel browser.Selector) (bool, error) {
	if err := d.guard(ctx); err != nil {
		return false, err
	}
	loc, err := d.locate(sel)
	if err != nil {
		return false, err
	}
	matches, err := loc.All()
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", sel, err)
	}
	for _, m := range matches {
		if visible, err := m.IsVisible(); err == nil && visible {
			return true, nil
		}
	}
	return false, nil
}

// Click clicks the first visible match.
func (d *Driver) Click(ctx context.Context, sel browser.Selector) error {
	if err := d.guard(ctx); err != nil {
		return err
	}
	target, err := d.firstVisible(sel)
	if err != nil {
		return err
	}
	if err := target.Click(playwright.LocatorClickOptions{Timeout: timeoutMillis(ctx, defaultActionTimeout)}); err != nil {
		return fmt.Errorf("clicking %s: %w", sel, err)
	}
	return nil
}

// Fill replaces the value of the first visible match.
func (d *Driver) Fill(ctx context.Context, sel browser.Selector, value string) error {
	if err := d.guard(ctx); err != nil {
		return err
	}
	target, err := d.firstVisible(sel)
	if err != nil {
		return err
	}
	if err := target.Fill(value, playwright.LocatorFillOptions{Timeout: timeoutMillis(ctx, defaultActionTimeout)}); err != nil {
		return fmt.Errorf("filling %s: %w", sel, err)
	}
	return nil
}

// Collect returns handles for all visible matches, in document order.
func (d *Driver) Collect(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := d.guard(ctx); err != nil {
		return nil, err
	}
	loc, err := d.locate(sel)
	if err != nil {
		return nil, err
	}
	matches, err := loc.All()
	if err != nil {
		return nil, fmt.Errorf("collecting %s: %w", sel, err)
	}
	elements := make([]browser.Element, 0, len(matches))
	for _, m := range matches {
		if visible, err := m.IsVisible(); err != nil || !visible {
			continue
		}
		elements = append(elements, &element{driver: d, loc: m})
	}
	return elements, nil
}

// Close shuts the page, the browser and the Playwright driver process down.
// Safe to call repeatedly.
func (d *Driver) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.logger.Debug("Closing playwright session.")
	if err := d.page.Close(); err != nil {
		d.logger.Debug("Page close reported an error.", zap.Error(err))
	}
	if err := d.browser.Close(); err != nil {
		d.logger.Debug("Browser close reported an error.", zap.Error(err))
	}
	if err := d.pw.Stop(); err != nil {
		return fmt.Errorf("stopping playwright: %w", err)
	}
	return nil
}

// guard rejects operations on a closed driver or a finished context.
func (d *Driver) guard(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return errDriverClosed
	}
	return nil
}

// firstVisible resolves sel to the first visible match, or browser.ErrNoMatch.
func (d *Driver) firstVisible(sel browser.Selector) (playwright.Locator, error) {
	loc, err := d.locate(sel)
	if err != nil {
		return nil, err
	}
	matches, err := loc.All()
	if err != nil {
		return nil, fmt.Errorf("locating %s: %w", sel, err)
	}
	for _, m := range matches {
		if visible, err := m.IsVisible(); err == nil && visible {
			return m, nil
		}
	}
	return nil, fmt.Errorf("locating %s: %w", sel, browser.ErrNoMatch)
}

// locate builds the Playwright locator for an engine-neutral selector. The
// document root is itself a locator so scoped and element-rooted lookups
// share one path.
func (d *Driver) locate(sel browser.Selector) (playwright.Locator, error) {
	root := d.page.Locator("html")
	if sel.Scope != "" {
		root = d.page.Locator(sel.Scope)
	}
	return locateIn(root, sel)
}

// locateIn resolves a selector's location mode against a root locator.
func locateIn(root playwright.Locator, sel browser.Selector) (playwright.Locator, error) {
	switch {
	case sel.CSS != "":
		return root.Locator(sel.CSS), nil
	case sel.Role != "":
		opts := playwright.LocatorGetByRoleOptions{}
		if sel.Name != nil {
			opts.Name = sel.Name
		}
		return root.GetByRole(playwright.AriaRole(strings.ToLower(sel.Role)), opts), nil
	case sel.Name != nil:
		return root.GetByText(sel.Name), nil
	default:
		return nil, fmt.Errorf("pw: empty selector")
	}
}

// timeoutMillis converts the caller's context deadline into a Playwright
// timeout, falling back to the given default when no deadline is set.
func timeoutMillis(ctx context.Context, fallback time.Duration) *float64 {
	limit := fallback
	if limit <= 0 {
		limit = defaultActionTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < limit {
			limit = remaining
		}
	}
	if limit < time.Millisecond {
		limit = time.Millisecond
	}
	return playwright.Float(float64(limit.Milliseconds()))
}
