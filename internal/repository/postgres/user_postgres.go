package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

const userColumns = "id, name, email, password_hash, role_id, refresh_token"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.RoleID,
		&u.RefreshToken,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user row and returns the stored record.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, name, email, password_hash, role_id, refresh_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, q,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		u.RoleID,
		u.RefreshToken,
	)
	return scanUser(row)
}

// FindByEmail fetches a single user by email.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, email))
}

// FindByID fetches a single user by ID.
func (r *UserPostgres) FindByID(ctx context.Context, id string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// FindByIDWithRole fetches a user joined with its role name.
func (r *UserPostgres) FindByIDWithRole(ctx context.Context, id string) (*model.UserWithRole, error) {
	const q = `
		SELECT u.id, u.name, u.email, u.password_hash, u.role_id, u.refresh_token, r.name
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`
	row := r.db.QueryRowContext(ctx, q, id)
	var uwr model.UserWithRole
	if err := row.Scan(
		&uwr.ID,
		&uwr.Name,
		&uwr.Email,
		&uwr.PasswordHash,
		&uwr.RoleID,
		&uwr.RefreshToken,
		&uwr.Role,
	); err != nil {
		return nil, err
	}
	return &uwr, nil
}

// UpdateRefreshToken stores (or clears) the user's refresh token.
func (r *UserPostgres) UpdateRefreshToken(ctx context.Context, id, token string) error {
	const q = `UPDATE users SET refresh_token = $2 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id, token)
	return err
}

// RolePostgres is a PostgreSQL implementation of repository.RoleRepository.
type RolePostgres struct {
	db *sql.DB
}

// NewRolePostgres creates a new RolePostgres repository.
func NewRolePostgres(db *sql.DB) *RolePostgres {
	return &RolePostgres{db: db}
}

var _ repository.RoleRepository = (*RolePostgres)(nil)

// FindByName fetches a role by its unique name.
func (r *RolePostgres) FindByName(ctx context.Context, name string) (*model.Role, error) {
	const q = `SELECT id, name FROM roles WHERE name = $1`
	var role model.Role
	if err := r.db.QueryRowContext(ctx, q, name).Scan(&role.ID, &role.Name); err != nil {
		return nil, err
	}
	return &role, nil
}
