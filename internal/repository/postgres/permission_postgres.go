package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// PermissionPostgres is a PostgreSQL implementation of repository.PermissionRepository.
// The table is read-only from the application's point of view.
type PermissionPostgres struct {
	db *sql.DB
}

// NewPermissionPostgres creates a new PermissionPostgres repository.
func NewPermissionPostgres(db *sql.DB) *PermissionPostgres {
	return &PermissionPostgres{db: db}
}

var _ repository.PermissionRepository = (*PermissionPostgres)(nil)

// HasPermission resolves the allow/deny cell for (role, action).
// A missing row or unknown role denies; only real query failures error.
func (r *PermissionPostgres) HasPermission(ctx context.Context, role string, action model.Action) (bool, error) {
	const q = `
		SELECT p.allowed
		FROM permissions p
		JOIN roles r ON r.id = p.role_id
		WHERE r.name = $1 AND p.action = $2
	`
	var allowed bool
	if err := r.db.QueryRowContext(ctx, q, role, string(action)).Scan(&allowed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return allowed, nil
}
