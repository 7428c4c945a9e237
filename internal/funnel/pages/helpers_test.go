// File: internal/funnel/pages/helpers_test.go
package pages

import (
	"context"
	"sync"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
)

// fakeDriver is an in-memory browser.Driver. Selector alternatives are keyed
// by their String() form; anything not registered behaves as absent.
type fakeDriver struct {
	mu       sync.Mutex
	location string

	visible    map[string]bool
	fillable   map[string]bool
	clickable  map[string]bool
	clickLimit map[string]int
	collect    map[string][]browser.Element
	errs       map[string]error

	fills  []fillRecord
	clicks []string
}

type fillRecord struct {
	sel   string
	value string
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		visible:    map[string]bool{},
		fillable:   map[string]bool{},
		clickable:  map[string]bool{},
		clickLimit: map[string]int{},
		collect:    map[string][]browser.Element{},
		errs:       map[string]error{},
	}
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = url
	return nil
}

func (d *fakeDriver) Location(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location, nil
}

func (d *fakeDriver) Visible(ctx context.Context, sel browser.Selector) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sel.String()
	if err, ok := d.errs[key]; ok {
		return false, err
	}
	return d.visible[key], nil
}

func (d *fakeDriver) Click(ctx context.Context, sel browser.Selector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sel.String()
	if err, ok := d.errs[key]; ok {
		return err
	}
	if !d.clickable[key] {
		return browser.ErrNoMatch
	}
	if limit, ok := d.clickLimit[key]; ok {
		if limit <= 0 {
			return browser.ErrNoMatch
		}
		d.clickLimit[key] = limit - 1
	}
	d.clicks = append(d.clicks, key)
	return nil
}

func (d *fakeDriver) Fill(ctx context.Context, sel browser.Selector, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sel.String()
	if err, ok := d.errs[key]; ok {
		return err
	}
	if !d.fillable[key] {
		return browser.ErrNoMatch
	}
	d.fills = append(d.fills, fillRecord{sel: key, value: value})
	return nil
}

func (d *fakeDriver) Collect(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sel.String()
	if err, ok := d.errs[key]; ok {
		return nil, err
	}
	return d.collect[key], nil
}

func (d *fakeDriver) Close(ctx context.Context) error { return nil }

func (d *fakeDriver) recordedFills() []fillRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]fillRecord, len(d.fills))
	copy(out, d.fills)
	return out
}

func (d *fakeDriver) recordedClicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.clicks))
	copy(out, d.clicks)
	return out
}

// fakeElement is an in-memory browser.Element with scripted text, HTML and
// descendant lookups.
type fakeElement struct {
	mu        sync.Mutex
	text      string
	html      string
	textErr   error
	htmlErr   error
	finds     map[string][]browser.Element
	findErr   error
	clicked   int
	findCalls int
}

func (e *fakeElement) Text(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.text, nil
}

func (e *fakeElement) HTML(ctx context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.htmlErr != nil {
		return "", e.htmlErr
	}
	return e.html, nil
}

func (e *fakeElement) Visible(ctx context.Context) (bool, error) { return true, nil }

func (e *fakeElement) Click(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clicked++
	return nil
}

func (e *fakeElement) Find(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.findCalls++
	if e.findErr != nil {
		return nil, e.findErr
	}
	return e.finds[sel.String()], nil
}

func (e *fakeElement) clickCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicked
}

func (e *fakeElement) findCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.findCalls
}
