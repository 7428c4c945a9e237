// File: internal/browser/pw/element.go
package pw

import (
	"context"
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// element wraps one resolved Playwright locator. Locators are live queries,
// so a handle follows its node across DOM updates and errors out once the
// node is gone.
type element struct {
	driver *Driver
	loc    playwright.Locator
}

var _ browser.Element = (*element)(nil)

// Text returns the node's visible text.
func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.driver.guard(ctx); err != nil {
		return "", err
	}
	text, err := e.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: timeoutMillis(ctx, probeTimeout)})
	if err != nil {
		return "", fmt.Errorf("reading element text: %w", err)
	}
	return text, nil
}

// HTML returns the node's outer HTML.
func (e *element) HTML(ctx context.Context) (string, error) {
	if err := e.driver.guard(ctx); err != nil {
		return "", err
	}
	out, err := e.loc.Evaluate("el => el.outerHTML", nil)
	if err != nil {
		return "", fmt.Errorf("reading element html: %w", err)
	}
	html, ok := out.(string)
	if !ok {
		return "", fmt.Errorf("reading element html: unexpected result %T", out)
	}
	return html, nil
}

// Visible reports whether the node is still rendered and visible.
func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := e.driver.guard(ctx); err != nil {
		return false, err
	}
	visible, err := e.loc.IsVisible()
	if err != nil {
		return false, fmt.Errorf("probing element: %w", err)
	}
	return visible, nil
}

// Click clicks the node.
func (e *element) Click(ctx context.Context) error {
	if err := e.driver.guard(ctx); err != nil {
		return err
	}
	if err := e.loc.Click(playwright.LocatorClickOptions{Timeout: timeoutMillis(ctx, defaultActionTimeout)}); err != nil {
		return fmt.Errorf("clicking element: %w", err)
	}
	return nil
}

// Find resolves descendants of this node, in document order.
func (e *element) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if err := e.driver.guard(ctx); err != nil {
		return nil, err
	}
	root := e.loc
	if sel.Scope != "" {
		root = e.loc.Locator(sel.Scope)
	}
	loc, err := locateIn(root, sel)
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
		elements = append(elements, &element{driver: e.driver, loc: m})
	}
	return elements, nil
}
