package repository

import (
	"context"

	"docvault/internal/model"
)

// UserRepository defines data access for user accounts.
type UserRepository interface {
	// Create inserts a new user row.
	Create(ctx context.Context, u *model.User) (*model.User, error)

	// FindByEmail returns a user by email (unique).
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID returns a user by ID.
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByIDWithRole returns a user joined with its role name.
	FindByIDWithRole(ctx context.Context, id string) (*model.UserWithRole, error)

	// UpdateRefreshToken stores the current refresh token for the user.
	// An empty token clears it (logout).
	UpdateRefreshToken(ctx context.Context, id, token string) error
}

// RoleRepository defines read access to the roles table.
type RoleRepository interface {
	// FindByName returns a role by its unique name.
	FindByName(ctx context.Context, name string) (*model.Role, error)
}
