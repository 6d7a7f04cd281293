package profile

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Profile kinds. Adult and child profiles live in disjoint event universes.
const (
	KindAdult = "adult"
	KindChild = "child"
)

// Membership types for adult profiles. Children carry no membership type.
const (
	MembershipStandard = "standard"
	MembershipStudent  = "student"
)

// Profile status constants.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Gender values as stored. Anything else resolves through the legacy group.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Domain errors
var (
	ErrEmptyName          = errors.New("profile name cannot be empty")
	ErrNameTooLong        = errors.New("profile name cannot exceed 100 characters")
	ErrInvalidKind        = errors.New("profile kind must be 'adult' or 'child'")
	ErrInvalidMembership  = errors.New("membership type must be 'standard' or 'student'")
	ErrInvalidStatus      = errors.New("status must be 'active' or 'inactive'")
	ErrChildNeedsParent   = errors.New("child profile must have at least one parent")
	ErrChildHasMembership = errors.New("child profiles do not carry a membership type")
)

// Profile holds state for an adult player or a child linked to parent adults.
type Profile struct {
	ID                string
	AccountID         string // login account for adults; empty for children
	Name              string
	Kind              string
	Gender            string // may be empty
	HasPaymentManager bool
	LegacyGroup       string // superseded by Groups, kept for old records
	MembershipType    string // adults only
	Groups            []string
	BirthDate         time.Time // children; zero when unknown
	ParentIDs         []string  // children: adult profile IDs
	ChildIDs          []string  // adults: roster of child profile IDs
	Status            string
}

// Validate checks if the Profile has valid data.
// PRE: Profile struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: children have a parent and no membership type
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	switch p.Kind {
	case KindAdult:
		if p.MembershipType != MembershipStandard && p.MembershipType != MembershipStudent {
			return ErrInvalidMembership
		}
	case KindChild:
		if len(p.ParentIDs) == 0 {
			return ErrChildNeedsParent
		}
		if p.MembershipType != "" {
			return ErrChildHasMembership
		}
	default:
		return ErrInvalidKind
	}
	if p.Status != StatusActive && p.Status != StatusInactive {
		return ErrInvalidStatus
	}
	return nil
}

// IsChild reports whether this is a child profile.
func (p *Profile) IsChild() bool {
	return p.Kind == KindChild
}

// IsActive returns true if the profile is currently active.
func (p *Profile) IsActive() bool {
	return p.Status == StatusActive
}

// IsStudent reports a student membership. Always false for children.
func (p *Profile) IsStudent() bool {
	return !p.IsChild() && p.MembershipType == MembershipStudent
}

// HasParent reports whether adultID is one of the child's parents.
func (p *Profile) HasParent(adultID string) bool {
	for _, id := range p.ParentIDs {
		if id == adultID {
			return true
		}
	}
	return false
}

// HasChild reports whether childID is on this adult's roster.
func (p *Profile) HasChild(childID string) bool {
	for _, id := range p.ChildIDs {
		if id == childID {
			return true
		}
	}
	return false
}

// AgeAt returns the whole-year age at t. ok is false without a birth date.
// PRE: none
// POST: age counts a year only once the birthday has been reached
func (p *Profile) AgeAt(t time.Time) (age int, ok bool) {
	if p.BirthDate.IsZero() {
		return 0, false
	}
	b := p.BirthDate.UTC()
	t = t.UTC()
	age = t.Year() - b.Year()
	if t.Month() < b.Month() || (t.Month() == b.Month() && t.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

// IsYouth reports membership of a youth group (U-13, U-15, U-18).
func (p *Profile) IsYouth() bool {
	for _, g := range p.Groups {
		if IsYouthGroup(g) {
			return true
		}
	}
	return false
}

// Category returns the aggregation bucket for this profile.
// Children always fall in the kids bucket; adults are resolved from
// gender, payment manager and legacy group on every call.
func (p *Profile) Category() Category {
	if p.IsChild() {
		return CategoryKids
	}
	return ResolveCategory(p.Gender, p.HasPaymentManager, p.LegacyGroup)
}

// EffectiveGroups returns the explicit groups plus the tag implied by the
// profile's category, de-duplicated case-insensitively.
func (p *Profile) EffectiveGroups() []string {
	out := make([]string, 0, len(p.Groups)+1)
	seen := make(map[string]bool, len(p.Groups)+1)
	add := func(g string) {
		key := NormalizeGroup(g)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, g)
	}
	for _, g := range p.Groups {
		add(g)
	}
	add(p.Category().Group())
	return out
}

// LegacyKey returns the value matched against an event's legacy group.
func (p *Profile) LegacyKey() string {
	if g := strings.TrimSpace(p.LegacyGroup); g != "" {
		return strings.ToLower(g)
	}
	return string(p.Category())
}
