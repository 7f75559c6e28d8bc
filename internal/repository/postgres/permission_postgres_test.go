package postgres

import (
	"context"
	"errors"
	"testing"

	"docvault/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestPermissionPostgres_HasPermission(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPermissionPostgres(db)
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.allowed FROM permissions").
			WithArgs("Admin", "delete").
			WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(true))

		ok, err := repo.HasPermission(ctx, "Admin", model.ActionDelete)

		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("explicitly denied", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.allowed FROM permissions").
			WithArgs("User", "delete").
			WillReturnRows(sqlmock.NewRows([]string{"allowed"}).AddRow(false))

		ok, err := repo.HasPermission(ctx, "User", model.ActionDelete)

		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unknown pair denies by default", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.allowed FROM permissions").
			WithArgs("Ghost", "read").
			WillReturnRows(sqlmock.NewRows([]string{"allowed"}))

		ok, err := repo.HasPermission(ctx, "Ghost", model.ActionRead)

		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("query failure surfaces as error", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.allowed FROM permissions").
			WithArgs("Admin", "read").
			WillReturnError(errors.New("connection reset"))

		ok, err := repo.HasPermission(ctx, "Admin", model.ActionRead)

		assert.Error(t, err)
		assert.False(t, ok)
	})
}
