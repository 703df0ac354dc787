package repository

import (
	"context"

	"github.com/inkwell/coauthor/internal/domain/model"
)

// UserRepository describes persistence operations for users and their roles.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)

	HasRole(ctx context.Context, userID int64, role model.Role) (bool, error)
	GrantRole(ctx context.Context, userID int64, role model.Role) error
	AnyWithRole(ctx context.Context, role model.Role) (bool, error)
}

// ProfileRepository manages buyer profile records.
type ProfileRepository interface {
	Get(ctx context.Context, userID int64) (*model.Profile, error)
	Upsert(ctx context.Context, profile *model.Profile) (*model.Profile, error)
}
