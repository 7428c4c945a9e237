// File: internal/browser/cdp/element.go
package cdp

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// element addresses one tagged DOM node. The handle stays valid as long as
// the node keeps its tag attribute; a re-rendered node loses it and the
// handle reports browser.ErrNoMatch.
type element struct {
	driver *Driver
	id     string
}

var _ browser.Element = (*element)(nil)

func (e *element) css() string {
	return tagSelector(e.id)
}

// Text returns the node's visible text.
func (e *element) Text(ctx context.Context) (string, error) {
	var text *string
	if err := e.driver.evaluate(ctx, elementTextScript(e.id), &text); err != nil {
		return "", fmt.Errorf("reading element text: %w", err)
	}
	if text == nil {
		return "", fmt.Errorf("reading element text: %w", browser.ErrNoMatch)
	}
	return *text, nil
}

// HTML returns the node's outer HTML.
func (e *element) HTML(ctx context.Context) (string, error) {
	var html *string
	if err := e.driver.evaluate(ctx, elementHTMLScript(e.id), &html); err != nil {
		return "", fmt.Errorf("reading element html: %w", err)
	}
	if html == nil {
		return "", fmt.Errorf("reading element html: %w", browser.ErrNoMatch)
	}
	return *html, nil
}

// Visible reports whether the node is still rendered and visible.
func (e *element) Visible(ctx context.Context) (bool, error) {
	return e.driver.Visible(ctx, browser.ByCSS(e.css()))
}

// Click dispatches a trusted click at the node's centre.
func (e *element) Click(ctx context.Context) error {
	return e.driver.Click(ctx, browser.ByCSS(e.css()))
}

// Find resolves descendants of this node, in document order.
func (e *element) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	scoped := sel
	if scoped.Scope != "" {
		scoped.Scope = e.css() + " " + scoped.Scope
	} else {
		scoped.Scope = e.css()
	}
	return e.driver.Collect(ctx, scoped)
}
