package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"clubhouse/internal/domain/account"
	"clubhouse/internal/domain/apperr"
	"clubhouse/internal/domain/profile"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the session identity and the profiles it may act as.
type LoginResult struct {
	AccountID string
	Email     string
	Role      string
	Profiles  []profile.Profile
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Profiles     ProfileLookup
	Now          func() time.Time
}

// Login errors
var (
	ErrInvalidCredentials = apperr.Validation("invalid email or password")
	ErrAccountLocked      = apperr.Forbidden("account is locked after too many failed attempts; try again later")
)

// ExecuteLogin validates credentials and returns the identity for session creation.
// PRE: email and password provided
// POST: failed attempts are counted and lock the account at the limit
// INVARIANT: a locked account never logs in, even with the right password
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	email := account.NormalizeEmail(input.Email)
	now := deps.Now()

	acct, err := deps.AccountStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	if acct.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			slog.Error("auth_event", "event", "failed_login_not_saved", "email", email, "error", err)
		}
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", acct.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 || !acct.LockedUntil.IsZero() {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return LoginResult{}, err
		}
	}

	profiles, err := deps.Profiles.ListByAccountID(ctx, acct.ID)
	if err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", acct.Role, "profiles", len(profiles))
	return LoginResult{AccountID: acct.ID, Email: acct.Email, Role: acct.Role, Profiles: profiles}, nil
}

// AccountStoreForChangePassword defines the store interface needed by ChangePassword.
type AccountStoreForChangePassword interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// ChangePasswordInput carries input for the change-password orchestrator.
type ChangePasswordInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// ErrNewPasswordSame rejects a change that keeps the old password.
var ErrNewPasswordSame = apperr.Validation("new password must be different from current password")

// ExecuteChangePassword verifies the current password and stores the new one.
// PRE: AccountID is the session account
// POST: PasswordHash replaced
func ExecuteChangePassword(ctx context.Context, input ChangePasswordInput, store AccountStoreForChangePassword) error {
	if input.AccountID == "" {
		return apperr.ErrUnauthorized
	}
	if input.CurrentPassword == "" || input.NewPassword == "" {
		return apperr.Validation("current and new password are required")
	}
	acct, err := store.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return classify(err, apperr.ErrValidation)
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return classify(err, apperr.ErrValidation)
	}
	if err := store.Save(ctx, acct); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "password_changed", "account_id", input.AccountID)
	return nil
}
