package domain

import "strconv"

// FilterRules is the configured predicate set deciding which item
// classes are withheld from an offer. Every rule is independently
// toggleable and rules compose by union: a class excluded by any
// enabled rule stays excluded no matter what the others say.
type FilterRules struct {
	IgnoreNotMarketable bool
	IgnoreMarketable    bool

	LootOnlyNames []string
	IgnoreNames   []string

	LootOnlyAppIDs []int
	IgnoreAppIDs   []int

	LootOnlyTags []string
	IgnoreTags   []string
}

// ClassIDsToExclude computes the exclusion set implied by the rules
// over the given descriptions. Non-tradable classes are always
// excluded. The function is pure; callers rebuild the set per fetch
// and never persist it.
func ClassIDsToExclude(descriptions map[string]Description, rules FilterRules) map[string]struct{} {
	excluded := make(map[string]struct{})

	lootOnlyNames := toSet(rules.LootOnlyNames)
	ignoreNames := toSet(rules.IgnoreNames)
	lootOnlyApps := toSet(intStrings(rules.LootOnlyAppIDs))
	ignoreApps := toSet(intStrings(rules.IgnoreAppIDs))
	lootOnlyTags := toSet(rules.LootOnlyTags)
	ignoreTags := toSet(rules.IgnoreTags)

	for classID, description := range descriptions {
		switch {
		case !description.Tradable:
			excluded[classID] = struct{}{}
		case rules.IgnoreNotMarketable && !description.Marketable:
			excluded[classID] = struct{}{}
		case rules.IgnoreMarketable && description.Marketable:
			excluded[classID] = struct{}{}
		case len(lootOnlyNames) > 0 && !contains(lootOnlyNames, description.MarketName):
			excluded[classID] = struct{}{}
		case len(ignoreNames) > 0 && contains(ignoreNames, description.MarketName):
			excluded[classID] = struct{}{}
		case len(lootOnlyApps) > 0 && !contains(lootOnlyApps, strconv.Itoa(description.AppID)):
			excluded[classID] = struct{}{}
		case len(ignoreApps) > 0 && contains(ignoreApps, strconv.Itoa(description.AppID)):
			excluded[classID] = struct{}{}
		case len(lootOnlyTags) > 0 && !hasAnyTag(description, lootOnlyTags):
			excluded[classID] = struct{}{}
		case len(ignoreTags) > 0 && hasAnyTag(description, ignoreTags):
			excluded[classID] = struct{}{}
		}
	}

	return excluded
}

func hasAnyTag(description Description, wanted map[string]struct{}) bool {
	for _, tag := range description.Tags {
		if contains(wanted, tag.InternalName) || contains(wanted, tag.LocalizedName) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}

func intStrings(values []int) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		result = append(result, strconv.Itoa(value))
	}
	return result
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
