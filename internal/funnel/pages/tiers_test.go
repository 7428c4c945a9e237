// File: internal/funnel/pages/tiers_test.go
package pages

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTiers(t *testing.T) {
	t.Run("Prefers The Most Specific Selector", func(t *testing.T) {
		fragment := `
<li class="fare-card">
  <div data-testid="fare-tier" data-fare-family="Basic">Basic CA $300</div>
  <div data-testid="fare-tier" data-fare-family="Flex">Flex CA $420</div>
  <div class="tier">Leftover markup CA $999</div>
</li>`
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 2)
		require.Equal(t, "Basic", tiers[0].Label)
		require.Equal(t, "Flex", tiers[1].Label)
	})

	t.Run("Label Falls Back To The First Text Line", func(t *testing.T) {
		fragment := `
<div class="fare-tier">
  Standard
  CA $450
</div>`
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 1)
		require.Equal(t, "Standard", tiers[0].Label)
		require.Equal(t, "Standard CA $450", tiers[0].Text)
	})

	t.Run("Attribute Label Wins Over Text", func(t *testing.T) {
		fragment := `<div class="tier" data-fare-family="Comfort">Economy Comfort CA $510</div>`
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 1)
		require.Equal(t, "Comfort", tiers[0].Label)
	})

	t.Run("Blank Attribute Falls Back", func(t *testing.T) {
		fragment := `<div class="tier" data-fare-family="   ">Flex CA $380</div>`
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 1)
		require.Equal(t, "Flex CA $380", tiers[0].Label)
	})

	t.Run("Class Substring Variants Match", func(t *testing.T) {
		fragment := `
<div>
  <div class="fare-family-cell">Latitude CA $780</div>
  <div class="fare-family-cell">Basic CA $520</div>
</div>`
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 2)
		require.Equal(t, "Basic CA $520", tiers[1].Text)
	})

	t.Run("Cards Without Tier Markup Yield Nil", func(t *testing.T) {
		require.Nil(t, parseTiers(`<li class="fare-card">AC101 Toronto to Tokyo CA $120</li>`))
		require.Nil(t, parseTiers("plain text, no markup"))
		require.Nil(t, parseTiers(""))
	})

	t.Run("Whitespace Is Collapsed In Tier Text", func(t *testing.T) {
		fragment := "<div class=\"tier\">\n\tFlex\n\n\tCA   $380\n</div>"
		tiers := parseTiers(fragment)
		require.Len(t, tiers, 1)
		require.Equal(t, "Flex CA $380", tiers[0].Text)
	})
}
