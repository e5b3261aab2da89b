package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/plotline-dev/plotline/pkg/domain/interfaces"
	"github.com/plotline-dev/plotline/pkg/domain/model"
	"github.com/plotline-dev/plotline/pkg/domain/model/auth"
	"github.com/plotline-dev/plotline/pkg/domain/types"
	"github.com/plotline-dev/plotline/pkg/utils/logging"
)

// UserUseCase manages profiles: first sign-in, approval and roles
type UserUseCase struct {
	repo   interfaces.Repository
	notify *notifications
	now    func() time.Time
}

func NewUserUseCase(repo interfaces.Repository, notify *notifications) *UserUseCase {
	return &UserUseCase{
		repo:   repo,
		notify: notify,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureProfile returns the profile of an authenticated identity, creating an
// unapproved broker profile on first sign-in
func (uc *UserUseCase) EnsureProfile(ctx context.Context, id types.UserID, email string) (*model.Profile, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "user ID is required")
	}

	profile, err := uc.repo.Profile().Get(ctx, id)
	if err == nil {
		if email != "" && profile.Email != email {
			profile.Email = email
			profile.UpdatedAt = uc.now()
			if err := uc.repo.Profile().Put(ctx, profile); err != nil {
				return nil, goerr.Wrap(err, "failed to update profile email", goerr.V(UserIDKey, id))
			}
		}
		return profile, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V(UserIDKey, id))
	}

	profile = model.NewProfile(id, email, uc.now())
	if err := uc.repo.Profile().Put(ctx, profile); err != nil {
		return nil, goerr.Wrap(err, "failed to create profile", goerr.V(UserIDKey, id))
	}

	logging.From(ctx).Info("profile created, pending approval", "user_id", id)
	uc.notify.profilePending(ctx, profile)
	return profile, nil
}

// EnsureAdmin returns the profile of a bootstrap administrator, creating or
// promoting it to an approved admin. It is used for configured admin
// identities and for the unauthenticated development mode. A banned profile
// is returned as is; only Unban lifts a ban.
func (uc *UserUseCase) EnsureAdmin(ctx context.Context, id types.UserID, email string) (*model.Profile, error) {
	if id == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "user ID is required")
	}

	profile, err := uc.repo.Profile().Get(ctx, id)
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		profile = model.NewProfile(id, email, uc.now())
	case err != nil:
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V(UserIDKey, id))
	case profile.Role == types.RoleBanned:
		logging.From(ctx).Warn("configured admin is banned", "user_id", id)
		return profile, nil
	case profile.Role == types.RoleAdmin && profile.Approved && (email == "" || profile.Email == email):
		return profile, nil
	}

	profile.Role = types.RoleAdmin
	profile.Approved = true
	if email != "" {
		profile.Email = email
	}
	profile.UpdatedAt = uc.now()

	if err := uc.repo.Profile().Put(ctx, profile); err != nil {
		return nil, goerr.Wrap(err, "failed to save admin profile", goerr.V(UserIDKey, id))
	}
	logging.From(ctx).Info("bootstrap admin ensured", "user_id", id)
	return profile, nil
}

// Me returns the profile of the caller
func (uc *UserUseCase) Me(ctx context.Context) (*model.Profile, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return uc.get(ctx, principal.ID)
}

// ListUsers returns all profiles, or only those awaiting approval
func (uc *UserUseCase) ListUsers(ctx context.Context, pendingOnly bool) ([]*model.Profile, error) {
	if _, err := uc.authorize(ctx); err != nil {
		return nil, err
	}

	profiles, err := uc.repo.Profile().List(ctx, pendingOnly)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list profiles")
	}
	return profiles, nil
}

// Approve lets a pending user act with their role
func (uc *UserUseCase) Approve(ctx context.Context, id types.UserID) (*model.Profile, error) {
	return uc.modify(ctx, id, func(p *model.Profile) error {
		p.Approved = true
		return nil
	})
}

// SetRole assigns one of the assignable roles. Banning goes through Ban.
func (uc *UserUseCase) SetRole(ctx context.Context, id types.UserID, role types.Role) (*model.Profile, error) {
	if !role.IsAssignable() {
		return nil, goerr.Wrap(ErrInvalidRole, "role cannot be assigned", goerr.V(RoleKey, role))
	}
	return uc.modify(ctx, id, func(p *model.Profile) error {
		p.Role = role
		return nil
	})
}

// Ban denies every capability to the user
func (uc *UserUseCase) Ban(ctx context.Context, id types.UserID) (*model.Profile, error) {
	return uc.modify(ctx, id, func(p *model.Profile) error {
		p.Role = types.RoleBanned
		return nil
	})
}

// Unban restores a banned user as a broker
func (uc *UserUseCase) Unban(ctx context.Context, id types.UserID) (*model.Profile, error) {
	return uc.modify(ctx, id, func(p *model.Profile) error {
		if p.Role != types.RoleBanned {
			return goerr.Wrap(ErrInvalidInput, "user is not banned", goerr.V(UserIDKey, p.ID), goerr.V(RoleKey, p.Role))
		}
		p.Role = types.RoleBroker
		return nil
	})
}

func (uc *UserUseCase) authorize(ctx context.Context) (*auth.Principal, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(principal, auth.ManageUsers()).Err(); err != nil {
		return nil, goerr.Wrap(err, "cannot manage users")
	}
	return principal, nil
}

func (uc *UserUseCase) modify(ctx context.Context, id types.UserID, update func(p *model.Profile) error) (*model.Profile, error) {
	principal, err := uc.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if id == principal.ID {
		return nil, goerr.Wrap(ErrInvalidInput, "cannot change own account", goerr.V(UserIDKey, id))
	}

	profile, err := uc.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := update(profile); err != nil {
		return nil, err
	}
	profile.UpdatedAt = uc.now()

	if err := uc.repo.Profile().Put(ctx, profile); err != nil {
		return nil, goerr.Wrap(err, "failed to save profile", goerr.V(UserIDKey, id))
	}

	logging.From(ctx).Info("profile changed",
		"user_id", id,
		"role", profile.Role,
		"approved", profile.Approved,
		"actor", principal.ID)
	return profile, nil
}

func (uc *UserUseCase) get(ctx context.Context, id types.UserID) (*model.Profile, error) {
	profile, err := uc.repo.Profile().Get(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrUserNotFound, "user not found", goerr.V(UserIDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get profile", goerr.V(UserIDKey, id))
	}
	return profile, nil
}
