package domain

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludeAlwaysDropsNonTradable(t *testing.T) {
	t.Parallel()

	descriptions := map[string]Description{
		"1": {ClassID: "1", Tradable: true, Marketable: true},
		"2": {ClassID: "2", Tradable: false, Marketable: true},
	}

	excluded := ClassIDsToExclude(descriptions, FilterRules{})

	assert.Contains(t, excluded, "2")
	assert.NotContains(t, excluded, "1")
}

func TestExcludeMarketableToggles(t *testing.T) {
	t.Parallel()

	descriptions := map[string]Description{
		"m":  {ClassID: "m", Tradable: true, Marketable: true},
		"nm": {ClassID: "nm", Tradable: true, Marketable: false},
	}

	cases := []struct {
		name     string
		rules    FilterRules
		excluded []string
	}{
		{"none", FilterRules{}, nil},
		{"ignore not marketable", FilterRules{IgnoreNotMarketable: true}, []string{"nm"}},
		{"ignore marketable", FilterRules{IgnoreMarketable: true}, []string{"m"}},
		{"both excludes everything", FilterRules{IgnoreNotMarketable: true, IgnoreMarketable: true}, []string{"m", "nm"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			excluded := ClassIDsToExclude(descriptions, tc.rules)
			require.Len(t, excluded, len(tc.excluded))
			for _, classID := range tc.excluded {
				assert.Contains(t, excluded, classID)
			}
		})
	}
}

func TestExcludeNameLists(t *testing.T) {
	t.Parallel()

	descriptions := map[string]Description{
		"keep": {ClassID: "keep", Tradable: true, MarketName: "Case Key"},
		"drop": {ClassID: "drop", Tradable: true, MarketName: "Sticker"},
	}

	allow := ClassIDsToExclude(descriptions, FilterRules{LootOnlyNames: []string{"Case Key"}})
	assert.Contains(t, allow, "drop")
	assert.NotContains(t, allow, "keep")

	deny := ClassIDsToExclude(descriptions, FilterRules{IgnoreNames: []string{"Sticker"}})
	assert.Contains(t, deny, "drop")
	assert.NotContains(t, deny, "keep")
}

func TestExcludeAppIDAndTagLists(t *testing.T) {
	t.Parallel()

	descriptions := map[string]Description{
		"cs":   {ClassID: "cs", Tradable: true, AppID: 730, Tags: []Tag{{Category: "Type", InternalName: "CSGO_Type_Knife", LocalizedName: "Knife"}}},
		"dota": {ClassID: "dota", Tradable: true, AppID: 570, Tags: []Tag{{Category: "Type", InternalName: "wearable", LocalizedName: "Wearable"}}},
	}

	byApp := ClassIDsToExclude(descriptions, FilterRules{LootOnlyAppIDs: []int{730}})
	assert.Contains(t, byApp, "dota")
	assert.NotContains(t, byApp, "cs")

	byTagDeny := ClassIDsToExclude(descriptions, FilterRules{IgnoreTags: []string{"Knife"}})
	assert.Contains(t, byTagDeny, "cs")
	assert.NotContains(t, byTagDeny, "dota")

	byTagAllow := ClassIDsToExclude(descriptions, FilterRules{LootOnlyTags: []string{"wearable"}})
	assert.Contains(t, byTagAllow, "cs")
	assert.NotContains(t, byTagAllow, "dota")
}

// An asset survives filtering exactly when its class id is outside the
// union of exclusions, regardless of which rules contributed.
func TestExcludeUnionProperty(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 50; round++ {
		descriptions := map[string]Description{}
		for i := 0; i < 40; i++ {
			classID := fmt.Sprintf("c%d", i)
			descriptions[classID] = Description{
				ClassID:    classID,
				AppID:      []int{730, 570, 440}[rng.IntN(3)],
				Tradable:   rng.IntN(4) != 0,
				Marketable: rng.IntN(2) == 0,
				MarketName: fmt.Sprintf("item-%d", rng.IntN(10)),
			}
		}

		rules := FilterRules{
			IgnoreNotMarketable: rng.IntN(2) == 0,
			IgnoreMarketable:    rng.IntN(4) == 0,
		}
		if rng.IntN(2) == 0 {
			rules.IgnoreNames = []string{"item-1", "item-2"}
		}
		if rng.IntN(3) == 0 {
			rules.LootOnlyAppIDs = []int{730}
		}

		excluded := ClassIDsToExclude(descriptions, rules)

		for classID, description := range descriptions {
			_, isExcluded := excluded[classID]
			assert.Equal(t, expectExcluded(description, rules), isExcluded, "class %s round %d", classID, round)
		}
	}
}

func TestExcludeIsPure(t *testing.T) {
	t.Parallel()

	descriptions := map[string]Description{
		"1": {ClassID: "1", Tradable: true, Marketable: false},
		"2": {ClassID: "2", Tradable: false},
		"3": {ClassID: "3", Tradable: true, Marketable: true, MarketName: "Gem"},
	}
	rules := FilterRules{IgnoreNotMarketable: true, IgnoreNames: []string{"Gem"}}

	first := ClassIDsToExclude(descriptions, rules)
	second := ClassIDsToExclude(descriptions, rules)

	assert.Equal(t, first, second)
}

// expectExcluded restates the rule union independently of the
// implementation's evaluation order.
func expectExcluded(d Description, rules FilterRules) bool {
	if !d.Tradable {
		return true
	}
	if rules.IgnoreNotMarketable && !d.Marketable {
		return true
	}
	if rules.IgnoreMarketable && d.Marketable {
		return true
	}
	if len(rules.IgnoreNames) > 0 {
		for _, name := range rules.IgnoreNames {
			if name == d.MarketName {
				return true
			}
		}
	}
	if len(rules.LootOnlyAppIDs) > 0 {
		found := false
		for _, appID := range rules.LootOnlyAppIDs {
			if appID == d.AppID {
				found = true
			}
		}
		if !found {
			return true
		}
	}
	return false
}
