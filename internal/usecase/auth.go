package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/inkwell/coauthor/internal/domain/errors"
	"github.com/inkwell/coauthor/internal/domain/model"
	"github.com/inkwell/coauthor/internal/domain/repository"
	pkgAuth "github.com/inkwell/coauthor/internal/pkg/auth"
)

// AuthUseCase handles account lifecycle, sessions and role checks.
type AuthUseCase struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	hasher   pkgAuth.PasswordHasher
	tokens   pkgAuth.TokenSigner
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, profiles repository.ProfileRepository, hasher pkgAuth.PasswordHasher, signer pkgAuth.TokenSigner) *AuthUseCase {
	return &AuthUseCase{users: users, profiles: profiles, hasher: hasher, tokens: signer}
}

// Register creates a new user with email/password and returns a session token.
func (u *AuthUseCase) Register(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, email, hash)
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.Issue(usr.ID)
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// Authenticate validates credentials and returns a session token.
func (u *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.Issue(usr.ID)
	if err != nil {
		return nil, "", err
	}

	return usr, token, nil
}

// ParseToken extracts user ID from provided token.
func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	if token == "" {
		return 0, pkgAuth.ErrInvalidToken
	}
	return u.tokens.Parse(token)
}

// GetByID fetches user by identifier.
func (u *AuthUseCase) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}

// IsAdmin reports whether the user carries the admin role.
func (u *AuthUseCase) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	return u.users.HasRole(ctx, userID, model.RoleAdmin)
}

// BootstrapAdmin grants the admin role to the caller when no admin exists
// yet. Returns whether the grant happened.
func (u *AuthUseCase) BootstrapAdmin(ctx context.Context, userID int64) (bool, error) {
	exists, err := u.users.AnyWithRole(ctx, model.RoleAdmin)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := u.users.GrantRole(ctx, userID, model.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// Profile returns the buyer profile, empty when none was saved yet.
func (u *AuthUseCase) Profile(ctx context.Context, userID int64) (*model.Profile, error) {
	profile, err := u.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return &model.Profile{UserID: userID}, nil
		}
		return nil, err
	}
	return profile, nil
}

// SaveProfile upserts the buyer profile.
func (u *AuthUseCase) SaveProfile(ctx context.Context, profile *model.Profile) (*model.Profile, error) {
	if profile.UserID == 0 {
		return nil, domainErrors.ErrInvalidInput
	}
	return u.profiles.Upsert(ctx, profile)
}
