// File: internal/funnel/selection/price.go

// Package selection picks the cheapest option out of a dynamically rendered
// candidate list. Price extraction is a pure text parser; ranking is a stable
// sort with ordered heuristic fallbacks for lists where no price parses.
package selection

import (
	"regexp"
	"strconv"
	"strings"
)

// Price parsing is deliberately narrow: a number only counts as a price when
// a currency marker sits directly against it. Fare cards are full of bare
// numerics (flight numbers, durations, stop counts) that must never rank.
var (
	// groupedDigitsRe finds one digit-grouping comma; collapsing runs in a
	// loop because matches cannot overlap in a single pass.
	groupedDigitsRe = regexp.MustCompile(`(\d),(\d)`)

	pricePrefixRe = regexp.MustCompile(`(?:C\$|CA\s?\$|US\s?\$|A\$|NZ\s?\$|\$|€|£|¥|(?i:\b(?:CAD|USD|EUR|GBP|AUD|NZD)\b))\s?(\d+(?:\.\d+)?)`)
	priceSuffixRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s?(?:\$|€|£|¥|(?i:\b(?:CAD|USD|EUR|GBP|AUD|NZD)\b))`)

	lowestBadgeRe = regexp.MustCompile(`(?i)\b(lowest\s+(price|fare)|cheapest|best\s+(price|deal))\b`)
)

// ParsePrice extracts the first currency-marked amount from raw option text.
// Digit-grouping commas are collapsed first, then the earliest
// currency-prefixed or currency-suffixed number wins. The captured number may
// carry at most two fractional digits; anything longer is malformed and
// yields no price. Deterministic and side-effect-free.
//
//	"CA $8,004"    -> 8004
//	"CAD 1,234.56" -> 1234.56
//	"$999"         -> 999
//	"Flight AC123" -> no price
func ParsePrice(s string) (float64, bool) {
	normalized := collapseDigitGroups(s)

	capture := ""
	start := -1
	if m := pricePrefixRe.FindStringSubmatchIndex(normalized); m != nil {
		capture = normalized[m[2]:m[3]]
		start = m[0]
	}
	if m := priceSuffixRe.FindStringSubmatchIndex(normalized); m != nil {
		if start == -1 || m[0] < start {
			capture = normalized[m[2]:m[3]]
		}
	}
	if capture == "" {
		return 0, false
	}

	if dot := strings.IndexByte(capture, '.'); dot >= 0 && len(capture)-dot-1 > 2 {
		return 0, false
	}
	value, err := strconv.ParseFloat(capture, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// HasLowestBadge reports whether option text carries a "lowest price" style
// badge. Used only as a fallback when no candidate yields a parsable price.
func HasLowestBadge(s string) bool {
	return lowestBadgeRe.MatchString(s)
}

// collapseDigitGroups removes commas sitting between digits. Adjacent groups
// share boundary digits, so a single replace pass cannot catch runs like
// "1,2,3"; loop until stable.
func collapseDigitGroups(s string) string {
	for {
		out := groupedDigitsRe.ReplaceAllString(s, "$1$2")
		if out == s {
			return out
		}
		s = out
	}
}
