package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

var docCols = []string{"id", "name", "tags", "storage_path", "size", "content_type", "owner_id", "created_at", "updated_at"}

func docRow(id string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(docCols).
		AddRow(id, "file.txt", "invoice,2024", "documents/file.txt", 100, "text/plain", "owner-1", now, now)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          "test-uuid",
		Name:        "test.txt",
		Tags:        "invoice,2024",
		StoragePath: "documents/test.txt",
		Size:        123,
		ContentType: "text/plain",
		OwnerID:     "owner-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rows := sqlmock.NewRows(docCols).
		AddRow(doc.ID, doc.Name, doc.Tags, doc.StoragePath, doc.Size, doc.ContentType, doc.OwnerID, doc.CreatedAt, doc.UpdatedAt)

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.Name, doc.Tags, doc.StoragePath, doc.Size, doc.ContentType, doc.OwnerID, doc.CreatedAt, doc.UpdatedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(docRow("test-id"))

		doc, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, doc)
		assert.Equal(t, "test-id", doc.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.True(t, errors.Is(err, sql.ErrNoRows))
		assert.Nil(t, doc)
	})
}

func TestDocumentPostgres_FindByOwnerID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id = ?").
		WithArgs("owner-1").
		WillReturnRows(docRow("doc-1"))

	docs, err := repo.FindByOwnerID(ctx, "owner-1")

	assert.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, "owner-1", docs[0].OwnerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY").
			WithArgs(10, 0).
			WillReturnRows(docRow("test-id"))

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Len(t, res.Items, 1)
	})
}

func TestDocumentPostgres_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          "test-id",
		Name:        "renamed.txt",
		Tags:        "report",
		StoragePath: "documents/file.txt",
		Size:        100,
		ContentType: "text/plain",
		UpdatedAt:   now,
	}

	mock.ExpectQuery("UPDATE documents").
		WithArgs(doc.ID, doc.Name, doc.Tags, doc.StoragePath, doc.Size, doc.ContentType, doc.UpdatedAt).
		WillReturnRows(docRow("test-id"))

	result, err := repo.Update(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SearchByTags(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("with tags", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE tags ILIKE (.+) AND tags ILIKE").
			WithArgs("%invoice%", "%2024%").
			WillReturnRows(docRow("doc-1"))

		docs, err := repo.SearchByTags(ctx, []string{"invoice", "2024"})

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("no tags returns all", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents ORDER BY").
			WillReturnRows(docRow("doc-1"))

		docs, err := repo.SearchByTags(ctx, nil)

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
	})
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM documents WHERE id = ?").
		WithArgs("test-id").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.Delete(ctx, "test-id")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
