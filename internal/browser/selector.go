// File: internal/browser/selector.go

// Package browser defines the engine-neutral contract between the funnel
// logic and a concrete rendering engine. The funnel packages speak only in
// terms of Selector, Element and Driver; the cdp and pw subpackages provide
// the real engines.
package browser

import (
	"fmt"
	"regexp"
)

// Selector describes how to locate elements on the rendered page. Exactly one
// of the location modes is used, checked in this order: CSS, Role (with Name),
// bare Name (visible-text match). Scope optionally restricts matches to
// descendants of a CSS-matched ancestor.
type Selector struct {
	// CSS is a raw structural selector.
	CSS string
	// Role is an ARIA role; matched together with Name against the element's
	// accessible name.
	Role string
	// Name is the accessible-name or visible-text pattern.
	Name *regexp.Regexp
	// Scope is a CSS selector the match's ancestor chain must satisfy.
	Scope string
}

// ByCSS locates elements by a raw structural selector.
func ByCSS(css string) Selector {
	return Selector{CSS: css}
}

// ByRole locates elements by ARIA role and accessible-name pattern.
func ByRole(role string, name *regexp.Regexp) Selector {
	return Selector{Role: role, Name: name}
}

// ByText locates elements whose visible text matches the pattern.
func ByText(name *regexp.Regexp) Selector {
	return Selector{Name: name}
}

// InScope returns a copy of the selector restricted to descendants of the
// given ancestor selector.
func (s Selector) InScope(css string) Selector {
	s.Scope = css
	return s
}

// IsZero reports whether the selector selects nothing.
func (s Selector) IsZero() bool {
	return s.CSS == "" && s.Role == "" && s.Name == nil
}

// String renders the selector for logs and error messages.
func (s Selector) String() string {
	var out string
	switch {
	case s.CSS != "":
		out = "css:" + s.CSS
	case s.Role != "":
		out = fmt.Sprintf("role:%s[name~%s]", s.Role, s.Name)
	case s.Name != nil:
		out = "text~" + s.Name.String()
	default:
		return "<empty selector>"
	}
	if s.Scope != "" {
		out += " within " + s.Scope
	}
	return out
}
