// File: internal/browser/selector_test.go
package browser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectorString(t *testing.T) {
	// Fakes and log assertions key off these renderings, so they are part of
	// the package contract.
	cases := []struct {
		name string
		sel  Selector
		want string
	}{
		{"CSS", ByCSS(".fare-card"), "css:.fare-card"},
		{"Role And Name", ByRole("button", regexp.MustCompile(`(?i)\bselect\b`)), `role:button[name~(?i)\bselect\b]`},
		{"Text", ByText(regexp.MustCompile(`(?i)accept`)), "text~(?i)accept"},
		{"Scoped CSS", ByCSS(".seat").InScope(".seat-map"), "css:.seat within .seat-map"},
		{"Scoped Role", ByRole("tab", regexp.MustCompile("(?i)business")).InScope("[role=tablist]"), "role:tab[name~(?i)business] within [role=tablist]"},
		{"Empty", Selector{}, "<empty selector>"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.sel.String())
		})
	}
}

func TestSelectorIsZero(t *testing.T) {
	assert.True(t, Selector{}.IsZero())
	assert.True(t, Selector{Scope: ".modal"}.IsZero(), "a scope alone selects nothing")
	assert.False(t, ByCSS("a").IsZero())
	assert.False(t, ByText(regexp.MustCompile("x")).IsZero())
	assert.False(t, ByRole("button", regexp.MustCompile("x")).IsZero())
}

func TestInScopeCopies(t *testing.T) {
	base := ByCSS(".fare-card")
	scoped := base.InScope(`[role="tabpanel"]`)

	assert.Empty(t, base.Scope, "InScope must not mutate the receiver")
	assert.Equal(t, `[role="tabpanel"]`, scoped.Scope)
	assert.Equal(t, base.CSS, scoped.CSS)
}
