// File: internal/funnel/pages/tiers.go
package pages

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TierInfo is one advertised fare tier lifted from a card's HTML fragment.
type TierInfo struct {
	// Label is the fare-family name, e.g. "Standard" or "Flex".
	Label string
	// Text is the tier cell's visible text with whitespace collapsed.
	Text string
}

// tierCellSelectors are tried most-specific first; the first selector with
// any hits supplies the tier set for the card.
var tierCellSelectors = []string{
	`[data-testid="fare-tier"]`,
	`.fare-tier`,
	`.tier`,
	`.fare-option`,
	`[class*="fare-family"]`,
}

// parseTiers extracts the advertised fare tiers from a card fragment.
// Cards without tier markup yield nil.
func parseTiers(fragment string) []TierInfo {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	for _, sel := range tierCellSelectors {
		cells := doc.Find(sel)
		if cells.Length() == 0 {
			continue
		}
		tiers := make([]TierInfo, 0, cells.Length())
		cells.Each(func(_ int, cell *goquery.Selection) {
			raw := cell.Text()
			label, ok := cell.Attr("data-fare-family")
			if !ok || strings.TrimSpace(label) == "" {
				label = firstLine(raw)
			}
			tiers = append(tiers, TierInfo{
				Label: strings.TrimSpace(label),
				Text:  collapseSpace(raw),
			})
		})
		return tiers
	}
	return nil
}

// firstLine returns the first non-empty line of raw text, trimmed.
func firstLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func collapseSpace(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
