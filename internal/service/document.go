package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docvault/internal/access"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// UploadInput carries user-provided metadata for a new document.
type UploadInput struct {
	Name             string
	Tags             string
	OriginalFilename string
	ContentType      string
	Size             int64
}

// UpdateInput is a partial patch for an existing document. Nil fields are
// left unchanged. A non-nil Content replaces the stored object.
type UpdateInput struct {
	Name             *string
	Tags             *string
	Content          io.Reader
	OriginalFilename string
	ContentType      string
	Size             int64
}

// DocumentService defines the use cases for handling documents. Every
// mutating operation is gated by the access engine before touching state.
type DocumentService interface {
	// Upload stores the content in object storage and saves metadata to the
	// DB, rolling back storage if the DB save fails. Requires the actor's
	// role to hold the create permission.
	Upload(ctx context.Context, actor model.Actor, r io.Reader, in UploadInput) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// ListByEmail returns all documents owned by the user with the given email.
	ListByEmail(ctx context.Context, email string) ([]model.Document, error)

	// Get returns a single document by its ID if the actor may read it.
	Get(ctx context.Context, actor model.Actor, id string) (*model.Document, error)

	// Update patches a document's metadata and optionally replaces its content.
	Update(ctx context.Context, actor model.Actor, id string, in UpdateInput) (*model.Document, error)

	// Delete removes a document from both storage and the repository.
	// When only one side succeeds, the error wraps ErrPartialDelete so the
	// caller knows orphaned state may exist.
	Delete(ctx context.Context, actor model.Actor, id string) error

	// Search returns documents matching every tag in the comma-separated list.
	Search(ctx context.Context, tags string) ([]model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	users  repository.UserRepository
	engine *access.Engine
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, users repository.UserRepository, engine *access.Engine) DocumentService {
	return &documentService{store: store, repo: repo, users: users, engine: engine}
}

// decisionErr maps a deny verdict onto the service error taxonomy.
func decisionErr(dec access.Decision) error {
	if dec.Allowed {
		return nil
	}
	switch dec.Reason {
	case access.ReasonDocumentNotFound:
		return ErrNotFound
	case access.ReasonDocumentIDRequired:
		return ErrIDRequired
	default:
		return ErrAccessDenied
	}
}

func (s *documentService) Upload(ctx context.Context, actor model.Actor, r io.Reader, in UploadInput) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}

	dec, err := s.engine.CanAccess(ctx, actor, "", model.ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := decisionErr(dec); err != nil {
		return nil, err
	}

	// Generate object key using UUID + extension
	ext := filepath.Ext(in.OriginalFilename)
	genName := uuid.New().String() + ext
	key := filepath.ToSlash(filepath.Join("documents", genName))

	// Upload to object storage
	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        in.Size,
		ContentType: in.ContentType,
		Metadata: map[string]string{
			"original-filename": in.OriginalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	name := in.Name
	if name == "" {
		name = in.OriginalFilename
	}

	now := time.Now().UTC()
	doc := &model.Document{
		ID:          uuid.New().String(),
		Name:        name,
		Tags:        in.Tags,
		StoragePath: objInfo.Key,
		Size:        objInfo.Size,
		ContentType: objInfo.ContentType,
		OwnerID:     actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// ListByEmail resolves the user first so an unknown email is reported as
// such rather than as an empty result.
func (s *documentService) ListByEmail(ctx context.Context, email string) ([]model.Document, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.repo.FindByOwnerID(ctx, user.ID)
}

// Get returns a document by ID after a read access check.
func (s *documentService) Get(ctx context.Context, actor model.Actor, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	dec, err := s.engine.CanAccess(ctx, actor, id, model.ActionRead)
	if err != nil {
		return nil, err
	}
	if err := decisionErr(dec); err != nil {
		return nil, err
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

// Update patches metadata and optionally replaces the stored object.
func (s *documentService) Update(ctx context.Context, actor model.Actor, id string, in UpdateInput) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	dec, err := s.engine.CanAccess(ctx, actor, id, model.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := decisionErr(dec); err != nil {
		return nil, err
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if in.Name != nil {
		doc.Name = *in.Name
	}
	if in.Tags != nil {
		doc.Tags = *in.Tags
	}

	var oldPath, newKey string
	if in.Content != nil {
		ext := filepath.Ext(in.OriginalFilename)
		key := filepath.ToSlash(filepath.Join("documents", uuid.New().String()+ext))
		objInfo, err := s.store.Put(ctx, key, in.Content, storage.PutObjectOptions{
			Size:        in.Size,
			ContentType: in.ContentType,
			Metadata: map[string]string{
				"original-filename": in.OriginalFilename,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("upload to storage: %w", err)
		}
		oldPath = doc.StoragePath
		newKey = objInfo.Key
		doc.StoragePath = objInfo.Key
		doc.Size = objInfo.Size
		doc.ContentType = objInfo.ContentType
	}

	doc.UpdatedAt = time.Now().UTC()

	stored, err := s.repo.Update(ctx, doc)
	if err != nil {
		if newKey != "" {
			// Rollback: the record still references the old object, so the
			// freshly uploaded one must go.
			if delErr := s.store.Delete(ctx, newKey); delErr != nil {
				return nil, fmt.Errorf("db update failed: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("db update failed: %w", err)
	}

	// The record points at the new object now; the previous one is removed
	// best-effort, a stale object is harmless.
	if oldPath != "" {
		_ = s.store.Delete(ctx, oldPath)
	}
	return stored, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	dec, err := s.engine.CanAccess(ctx, actor, id, model.ActionDelete)
	if err != nil {
		return err
	}
	if err := decisionErr(dec); err != nil {
		return err
	}

	// Find the document to get its storage path
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	// Delete from storage first; if this fails nothing has been removed yet,
	// so the failure is total, not partial.
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	// The blob is gone; a row deletion failure now leaves an orphaned record
	// and must be distinguishable from full success and full failure.
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: record not removed: %v", ErrPartialDelete, err)
	}
	return nil
}

// Search splits the comma-separated tag list and matches all tags.
func (s *documentService) Search(ctx context.Context, tags string) ([]model.Document, error) {
	var parsed []string
	for _, tag := range strings.Split(tags, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			parsed = append(parsed, tag)
		}
	}
	return s.repo.SearchByTags(ctx, parsed)
}
