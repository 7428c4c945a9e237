// File: internal/funnel/pages/passenger.go
package pages

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"github.com/xkilldash9x/farescout-cli/internal/funnel/state"
)

// Contact holds the traveller details typed into the passenger form.
type Contact struct {
	FirstName string `mapstructure:"first_name" yaml:"first_name"`
	LastName  string `mapstructure:"last_name" yaml:"last_name"`
	Email     string `mapstructure:"email" yaml:"email"`
	Phone     string `mapstructure:"phone" yaml:"phone"`
}

// DefaultContact returns placeholder traveller details for dry runs.
func DefaultContact() Contact {
	return Contact{
		FirstName: "Test",
		LastName:  "User",
		Email:     "test.user@example.com",
		Phone:     "555-0199",
	}
}

// Passenger fills the traveller-details form and continues. Carriers vary
// wildly in which fields they require, so every fill tolerates absence; the
// continue click is the only hard requirement.
type Passenger struct {
	deps    Deps
	contact Contact
	log     *zap.Logger
}

func NewPassenger(deps Deps, contact Contact) *Passenger {
	return &Passenger{deps: deps, contact: contact, log: deps.logger().Named("passenger")}
}

func (p *Passenger) Name() string   { return "passenger" }
func (p *Passenger) Optional() bool { return false }

func (p *Passenger) Ready() state.TargetState {
	d := p.deps.Driver
	return state.TargetState{
		Label: "passenger-form",
		Strategies: []state.DetectionStrategy{
			state.SelectorVisible(d,
				`input[name*="first"], [data-testid="passenger-form"], form#passenger, input[autocomplete="given-name"]`,
				state.WithBudget(p.deps.StrategyBudget)),
			state.LocationMatches(d, regexp.MustCompile(`(?i)(passenger|traveller|traveler|details)`),
				state.WithBudget(p.deps.StrategyBudget)),
			state.TextVisible(d, regexp.MustCompile(`(?i)(passenger|traveller|traveler)\s+(details|information)`)),
		},
	}
}

func (p *Passenger) Act(ctx context.Context) error {
	d := p.deps.Driver
	fillOptional(ctx, p.log, d, "first name", p.contact.FirstName,
		browser.ByCSS(`#firstName, [data-testid="first-name"], input[name*="first"], input[autocomplete="given-name"]`),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)first\s*name`)),
	)
	fillOptional(ctx, p.log, d, "last name", p.contact.LastName,
		browser.ByCSS(`#lastName, [data-testid="last-name"], input[name*="last"], input[autocomplete="family-name"]`),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)(last|family)\s*name`)),
	)
	fillOptional(ctx, p.log, d, "email", p.contact.Email,
		browser.ByCSS(`input[type="email"], #email, [data-testid="email"], input[name*="email"]`),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)e-?mail`)),
	)
	fillOptional(ctx, p.log, d, "phone", p.contact.Phone,
		browser.ByCSS(`input[type="tel"], #phone, [data-testid="phone"], input[name*="phone"]`),
		browser.ByRole("textbox", regexp.MustCompile(`(?i)(phone|mobile)`)),
	)

	p.log.Info("Continuing past passenger details.")
	err := clickFirst(ctx, d,
		browser.ByRole("button", regexp.MustCompile(`(?i)(continue|next|proceed)`)),
		browser.ByCSS(`button[type="submit"], [data-testid="passenger-continue"]`),
	)
	if err != nil {
		return fmt.Errorf("continuing from passenger form: %w", err)
	}
	return nil
}
