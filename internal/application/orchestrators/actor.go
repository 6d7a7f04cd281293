package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/profile"
)

// Actor is the authenticated caller, taken from the session by the transport.
type Actor struct {
	AccountID string
	Role      string
}

// IsAdmin reports an admin caller.
func (a Actor) IsAdmin() bool {
	return a.Role == account.RoleAdmin
}

// ProfileLookup is the profile store surface the actor checks need.
type ProfileLookup interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	ListByAccountID(ctx context.Context, accountID string) ([]profile.Profile, error)
}

// ErrNotYourProfile is returned when the caller neither owns nor parents the profile.
var ErrNotYourProfile = apperr.Forbidden("you can only act for your own profile or your children")

// AuthorizeActor resolves the profile the caller wants to act as.
// PRE: profileID is the acting profile chosen explicitly by the caller
// POST: returns the profile when the caller owns it or is a parent of it.
// A child on the caller's roster whose document does not exist yet is let
// through with a nil profile; callers must skip profile-dependent checks.
func AuthorizeActor(ctx context.Context, actor Actor, profileID string, profiles ProfileLookup) (*profile.Profile, error) {
	if actor.AccountID == "" {
		return nil, apperr.ErrUnauthorized
	}
	if profileID == "" {
		return nil, apperr.Validation("profile id is required")
	}

	owned, err := profiles.ListByAccountID(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	for i := range owned {
		if owned[i].ID == profileID {
			return &owned[i], nil
		}
	}

	for _, parent := range owned {
		if parent.IsChild() || !parent.HasChild(profileID) {
			continue
		}
		child, err := profiles.GetByID(ctx, profileID)
		if errors.Is(err, apperr.ErrNotFound) {
			slog.Warn("profile_event", "event", "child_not_materialized",
				"parent_id", parent.ID, "child_id", profileID)
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !child.HasParent(parent.ID) {
			return nil, fmt.Errorf("child roster and parent link disagree: %w", ErrNotYourProfile)
		}
		return &child, nil
	}
	return nil, ErrNotYourProfile
}

// classify tags a domain error with an apperr kind, keeping both in the chain.
func classify(err error, kind error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", err, kind)
}
