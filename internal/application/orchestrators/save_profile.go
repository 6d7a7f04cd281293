package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/profile"
)

// ProfileStore is the profile persistence SaveProfile needs.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (profile.Profile, error)
	Save(ctx context.Context, p profile.Profile) error
}

// SaveProfileDeps holds dependencies for SaveProfile.
type SaveProfileDeps struct {
	Profiles   ProfileStore
	GenerateID func() string
}

// ExecuteSaveProfile creates or updates a profile and keeps parent rosters in step.
// PRE: caller is an admin
// POST: profile persisted; each parent of a child lists it in ChildIDs
// POST: an adult saved without ChildIDs keeps its stored roster
func ExecuteSaveProfile(ctx context.Context, adminID string, p profile.Profile, deps SaveProfileDeps) (profile.Profile, error) {
	var stored *profile.Profile
	if p.ID == "" {
		p.ID = deps.GenerateID()
	} else {
		existing, err := deps.Profiles.GetByID(ctx, p.ID)
		switch {
		case err == nil:
			stored = &existing
		case !errors.Is(err, apperr.ErrNotFound):
			return profile.Profile{}, err
		}
	}
	if stored != nil && !p.IsChild() && p.ChildIDs == nil {
		p.ChildIDs = stored.ChildIDs
	}
	if p.Status == "" {
		p.Status = profile.StatusActive
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, classify(err, apperr.ErrValidation)
	}

	var parents []profile.Profile
	if p.IsChild() {
		for _, parentID := range p.ParentIDs {
			parent, err := deps.Profiles.GetByID(ctx, parentID)
			if errors.Is(err, apperr.ErrNotFound) {
				return profile.Profile{}, apperr.Validation("parent profile " + parentID + " does not exist")
			}
			if err != nil {
				return profile.Profile{}, err
			}
			if parent.IsChild() {
				return profile.Profile{}, apperr.Validation("a child profile cannot be a parent")
			}
			parents = append(parents, parent)
		}
	}

	if err := deps.Profiles.Save(ctx, p); err != nil {
		return profile.Profile{}, err
	}
	for _, parent := range parents {
		if parent.HasChild(p.ID) {
			continue
		}
		parent.ChildIDs = append(parent.ChildIDs, p.ID)
		if err := deps.Profiles.Save(ctx, parent); err != nil {
			return profile.Profile{}, err
		}
	}
	if stored != nil && p.IsChild() {
		if err := dropFromRosters(ctx, deps.Profiles, *stored, p); err != nil {
			return profile.Profile{}, err
		}
	}

	slog.Info("profile_event", "event", "saved", "profile_id", p.ID, "kind", p.Kind, "admin_id", adminID)
	return p, nil
}

// dropFromRosters removes child from the rosters of parents it no longer names.
func dropFromRosters(ctx context.Context, profiles ProfileStore, before, child profile.Profile) error {
	for _, parentID := range before.ParentIDs {
		if child.HasParent(parentID) {
			continue
		}
		parent, err := profiles.GetByID(ctx, parentID)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		kept := parent.ChildIDs[:0:0]
		for _, id := range parent.ChildIDs {
			if id != child.ID {
				kept = append(kept, id)
			}
		}
		parent.ChildIDs = kept
		if err := profiles.Save(ctx, parent); err != nil {
			return err
		}
	}
	return nil
}
