package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docvault/internal/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var userCols = []string{"id", "name", "email", "password_hash", "role_id", "refresh_token"}

func TestUserPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	u := &model.User{
		ID:           "user-1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$...",
		RoleID:       "role-1",
	}

	rows := sqlmock.NewRows(userCols).
		AddRow(u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, "")

	mock.ExpectQuery("INSERT INTO users").
		WithArgs(u.ID, u.Name, u.Email, u.PasswordHash, u.RoleID, "").
		WillReturnRows(rows)

	stored, err := repo.Create(ctx, u)

	assert.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserPostgres_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(userCols).
			AddRow("user-1", "Alice", "alice@example.com", "hash", "role-1", "")

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("alice@example.com").
			WillReturnRows(rows)

		u, err := repo.FindByEmail(ctx, "alice@example.com")

		assert.NoError(t, err)
		assert.Equal(t, "user-1", u.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("missing@example.com").
			WillReturnError(sql.ErrNoRows)

		u, err := repo.FindByEmail(ctx, "missing@example.com")

		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, u)
	})
}

func TestUserPostgres_FindByIDWithRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role_id", "refresh_token", "name"}).
		AddRow("user-1", "Alice", "alice@example.com", "hash", "role-1", "", "Admin")

	mock.ExpectQuery("SELECT (.+) FROM users u JOIN roles r").
		WithArgs("user-1").
		WillReturnRows(rows)

	uwr, err := repo.FindByIDWithRole(ctx, "user-1")

	assert.NoError(t, err)
	assert.Equal(t, "Admin", uwr.Role)
	assert.Equal(t, "user-1", uwr.ID)
}

func TestUserPostgres_UpdateRefreshToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE users SET refresh_token").
		WithArgs("user-1", "new-token").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateRefreshToken(ctx, "user-1", "new-token"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolePostgres_FindByName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRolePostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, name FROM roles WHERE name = ?").
		WithArgs("User").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("role-2", "User"))

	role, err := repo.FindByName(ctx, "User")

	assert.NoError(t, err)
	assert.Equal(t, "role-2", role.ID)
}
