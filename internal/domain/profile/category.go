package profile

import "strings"

// Category is the derived cohort of a profile. Never stored.
type Category string

// Category values.
const (
	CategoryMen     Category = "men"
	CategoryWomen   Category = "women"
	CategoryJuniors Category = "juniors"
	CategoryKids    Category = "kids"
)

// Target group tags.
const (
	GroupMen     = "Men"
	GroupWomen   = "Women"
	GroupJuniors = "Juniors"
	GroupU13     = "U-13"
	GroupU15     = "U-15"
	GroupU18     = "U-18"
	GroupKids    = "Kids"
)

// YouthGroups are the cohort tags that carry the youth discount.
var YouthGroups = []string{GroupU13, GroupU15, GroupU18}

// ResolveCategory classifies an adult profile.
// PRE: none
// POST: always returns men, women or juniors
// INVARIANT: payment manager beats gender, gender beats legacy group
func ResolveCategory(gender string, hasPaymentManager bool, legacyGroup string) Category {
	if hasPaymentManager {
		return CategoryJuniors
	}
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case GenderMale:
		return CategoryMen
	case GenderFemale:
		return CategoryWomen
	}
	switch strings.ToLower(strings.TrimSpace(legacyGroup)) {
	case string(CategoryWomen):
		return CategoryWomen
	case string(CategoryJuniors):
		return CategoryJuniors
	}
	return CategoryMen
}

// Group returns the target-group tag implied by the category.
func (c Category) Group() string {
	switch c {
	case CategoryMen:
		return GroupMen
	case CategoryWomen:
		return GroupWomen
	case CategoryJuniors:
		return GroupJuniors
	case CategoryKids:
		return GroupKids
	}
	return ""
}

// NormalizeGroup folds a group tag for comparison.
func NormalizeGroup(g string) string {
	return strings.ToLower(strings.TrimSpace(g))
}

// IsYouthGroup reports whether g is U-13, U-15 or U-18.
func IsYouthGroup(g string) bool {
	n := NormalizeGroup(g)
	for _, y := range YouthGroups {
		if n == NormalizeGroup(y) {
			return true
		}
	}
	return false
}
