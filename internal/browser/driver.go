// File: internal/browser/driver.go
package browser

import (
	"context"
	"errors"
)

// ErrNoMatch is returned by element-targeting operations when the selector
// resolves to nothing.
var ErrNoMatch = errors.New("browser: selector matched no element")

// Element is an opaque handle to one element on the rendered page. Handles
// are only valid for the page state they were collected from; after a
// re-render a handle may go stale, in which case its methods return errors
// and the caller is expected to re-collect.
type Element interface {
	// Text returns the element's visible text content.
	Text(ctx context.Context) (string, error)
	// HTML returns the element's outer HTML.
	HTML(ctx context.Context) (string, error)
	// Visible reports whether the element is currently rendered and visible.
	Visible(ctx context.Context) (bool, error)
	// Click dispatches a click to the element.
	Click(ctx context.Context) error
	// Find resolves descendant elements of this element, in document order.
	Find(ctx context.Context, sel Selector) ([]Element, error)
}

// Driver is one rendering-engine session. All calls are issued sequentially
// by a single logical thread of control; a Driver is never shared between
// concurrent runs. Probing calls (Location, Visible, Collect) are one-shot
// and never wait; bounded waiting is the caller's concern.
type Driver interface {
	// Name identifies the engine ("chromedp", "playwright") in logs and reports.
	Name() string
	// Navigate loads the given URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)
	// Visible reports whether at least one element matching sel is visible.
	Visible(ctx context.Context, sel Selector) (bool, error)
	// Click clicks the first visible element matching sel. Returns ErrNoMatch
	// if nothing matches.
	Click(ctx context.Context, sel Selector) error
	// Fill replaces the value of the first visible element matching sel.
	Fill(ctx context.Context, sel Selector, value string) error
	// Collect returns handles for all visible elements matching sel, in
	// document order. Hidden template nodes are not part of the rendered
	// option set and are skipped.
	Collect(ctx context.Context, sel Selector) ([]Element, error)
	// Close tears the session down. Safe to call more than once.
	Close(ctx context.Context) error
}
