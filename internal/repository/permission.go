package repository

import (
	"context"

	"docvault/internal/model"
)

// PermissionRepository is the read-only role/action allow-deny matrix.
// Unknown (role, action) pairs must resolve to false (default deny).
type PermissionRepository interface {
	HasPermission(ctx context.Context, role string, action model.Action) (bool, error)
}
