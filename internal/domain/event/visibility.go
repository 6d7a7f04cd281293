package event

import (
	"strings"

	"clubhouse/internal/domain/profile"
)

// InUniverse reports whether the profile's kind matches the event's:
// child events are for child profiles, adult events for adults.
func InUniverse(e Event, p profile.Profile) bool {
	return e.IsChildEvent == p.IsChild()
}

// VisibleTo decides whether p may see and act on e.
// PRE: none
// POST: pure predicate, no side effects
func VisibleTo(e Event, p profile.Profile) bool {
	if !InUniverse(e, p) {
		return false
	}
	return groupsMatch(e, p)
}

// VisibleForListing is VisibleTo with the admin bypass of the group check.
// Never use it for a profile's own attendance view.
func VisibleForListing(e Event, p profile.Profile, isAdmin bool) bool {
	if isAdmin {
		return true
	}
	return VisibleTo(e, p)
}

func groupsMatch(e Event, p profile.Profile) bool {
	if len(e.TargetGroups) > 0 {
		have := make(map[string]bool)
		for _, g := range p.EffectiveGroups() {
			have[profile.NormalizeGroup(g)] = true
		}
		for _, g := range e.TargetGroups {
			if have[profile.NormalizeGroup(g)] {
				return true
			}
		}
		return false
	}
	legacy := strings.ToLower(strings.TrimSpace(e.LegacyGroup))
	if legacy == LegacyGroupAll {
		return true
	}
	return legacy != "" && legacy == p.LegacyKey()
}
