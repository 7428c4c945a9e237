// File: internal/funnel/state/overlay.go
package state

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/xkilldash9x/farescout-cli/internal/browser"
	"go.uber.org/zap"
)

const (
	// DefaultOverlayBudget is the primary scan window when the caller passes
	// a non-positive budget.
	DefaultOverlayBudget = 5 * time.Second
	// overlayGracePeriod is the single fixed pause that tolerates overlays
	// rendering after the primary window has already closed.
	overlayGracePeriod = 750 * time.Millisecond
	// overlaySecondaryMin floors the shortened secondary scan window.
	overlaySecondaryMin = 500 * time.Millisecond
)

// acceptNameRe matches the accessible names consent overlays put on their
// dismissal controls.
var acceptNameRe = regexp.MustCompile(`(?i)\b(accept( all)?( cookies)?|agree|allow( all)?|got it|i understand|ok(ay)?)\b`)

// dialogScopeCSS confines the generic text scan to containers that present as
// modal dialogs or cookie banners, keeping it from clicking page content.
const dialogScopeCSS = `dialog, [role="dialog"], [aria-modal="true"], [class*="cookie"], [id*="cookie"], [id*="consent"]`

// dismissalAffordances is the fixed scan order: exact consent-manager control
// ids first, then accessible-name matches on buttons and links, then the
// dialog-scoped text match as the broadest net.
var dismissalAffordances = []struct {
	name string
	sel  browser.Selector
}{
	{"consent id", browser.ByCSS(`#onetrust-accept-btn-handler, #cookie-accept, #accept-cookies, [data-testid="cookie-accept"]`)},
	{"accept button", browser.ByRole("button", acceptNameRe)},
	{"accept link", browser.ByRole("link", acceptNameRe)},
	{"dialog text", browser.ByText(acceptNameRe).InScope(dialogScopeCSS)},
}

// AcceptTransientOverlay scans for a cookie/consent-style overlay and clicks
// its dismissal control if one is visible. The scan polls the ordered
// affordance list for up to budget; if nothing shows, it pauses once for a
// short grace period and rescans with a shorter secondary window, so overlays
// that render late still get caught.
//
// The return value reports whether a dismissal was clicked. An absent overlay
// is a normal outcome, not an error; the only error ever returned is ctx
// cancellation.
func (r *Resolver) AcceptTransientOverlay(ctx context.Context, budget time.Duration) (bool, error) {
	if budget <= 0 {
		budget = DefaultOverlayBudget
	}
	log := r.logger.With(zap.Duration("budget", budget))

	clicked, err := r.scanAndDismiss(ctx, budget)
	if err != nil || clicked {
		return clicked, err
	}

	log.Debug("No overlay in primary window, pausing for late renders.")
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("overlay scan: %w", ctx.Err())
	case <-time.After(overlayGracePeriod):
	}

	secondary := budget / 2
	if secondary < overlaySecondaryMin {
		secondary = overlaySecondaryMin
	}
	clicked, err = r.scanAndDismiss(ctx, secondary)
	if err == nil && !clicked {
		log.Debug("No transient overlay present.")
	}
	return clicked, err
}

// scanAndDismiss polls the affordance list for up to window, clicking the
// first visible control it finds. Window expiry is a normal (false, nil)
// outcome; only parent-context cancellation is an error.
func (r *Resolver) scanAndDismiss(ctx context.Context, window time.Duration) (bool, error) {
	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var clicked string
	err := pollUntil(scanCtx, DefaultPollInterval, func(c context.Context) (bool, error) {
		for _, aff := range dismissalAffordances {
			visible, err := r.surface.Visible(c, aff.sel)
			if err != nil || !visible {
				continue
			}
			if err := r.surface.Click(c, aff.sel); err != nil {
				// The overlay may have vanished between probe and click;
				// the next pass gets a fresh look.
				continue
			}
			clicked = aff.name
			return true, nil
		}
		return false, nil
	})

	if err != nil {
		if ctx.Err() != nil {
			return false, fmt.Errorf("overlay scan: %w", ctx.Err())
		}
		return false, nil
	}
	r.logger.Info("Dismissed transient overlay.", zap.String("affordance", clicked))
	return true, nil
}
