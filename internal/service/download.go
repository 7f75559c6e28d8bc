package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"docvault/internal/access"
	"docvault/internal/repository"
	"docvault/internal/storage"

	"docvault/internal/model"
	"docvault/internal/token"
)

// DownloadResult is a streamable file handle plus the metadata the HTTP
// layer needs to build the response. Filename is already sanitized and safe
// to echo into a Content-Disposition header.
type DownloadResult struct {
	Stream      io.ReadCloser
	Filename    string
	Size        int64
	ContentType string
}

// DownloadService issues capability download links and redeems them.
// Issuance requires ownership (checked through the access engine); redemption
// requires only a valid token, which is the deliberate trust boundary: anyone
// holding the URL may read that one document until the token expires.
type DownloadService interface {
	// GenerateLink mints a signed, time-bounded download URL for the document.
	GenerateLink(ctx context.Context, actor model.Actor, documentID, baseURL string) (string, error)

	// Redeem verifies the token, re-resolves the document, and returns a
	// stream of its content. The document is looked up again at redemption
	// time so a deletion after issuance surfaces as ErrNotFound rather than
	// a stale read.
	Redeem(ctx context.Context, tokenString string) (*DownloadResult, error)
}

type downloadService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	engine *access.Engine
	issuer *token.Issuer
}

// NewDownloadService constructs a DownloadService.
func NewDownloadService(store storage.Storage, repo repository.DocumentRepository, engine *access.Engine, issuer *token.Issuer) DownloadService {
	return &downloadService{store: store, repo: repo, engine: engine, issuer: issuer}
}

func (s *downloadService) GenerateLink(ctx context.Context, actor model.Actor, documentID, baseURL string) (string, error) {
	dec, err := s.engine.CanShare(ctx, actor, documentID)
	if err != nil {
		return "", err
	}
	if !dec.Allowed {
		switch dec.Reason {
		case access.ReasonDocumentNotFound:
			return "", ErrNotFound
		case access.ReasonDocumentIDRequired:
			return "", ErrIDRequired
		default:
			return "", ErrNotOwner
		}
	}

	tok, err := s.issuer.Mint(documentID, actor.ID)
	if err != nil {
		return "", fmt.Errorf("mint download token: %w", err)
	}
	return fmt.Sprintf("%s/api/v1/documents/download/%s", strings.TrimRight(baseURL, "/"), tok), nil
}

func (s *downloadService) Redeem(ctx context.Context, tokenString string) (*DownloadResult, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		// ErrLinkExpired / ErrLinkInvalid pass through unchanged.
		return nil, err
	}

	// The document id comes from the signed claims, never from the URL, and
	// is re-resolved so a document deleted after issuance is caught here.
	doc, err := s.repo.FindByID(ctx, claims.DocumentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	exists, err := s.store.Exists(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("check object: %w", err)
	}
	if !exists {
		return nil, ErrBlobMissing
	}

	stream, info, err := s.store.Get(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}

	return &DownloadResult{
		Stream:      stream,
		Filename:    SanitizeFilename(doc.Name),
		Size:        info.Size,
		ContentType: info.ContentType,
	}, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// SanitizeFilename makes a stored name safe to echo into a response header.
// Control characters, quotes, and angle brackets are replaced and whitespace
// runs are collapsed, closing off header injection via attacker-controlled
// filenames.
func SanitizeFilename(name string) string {
	name = whitespaceRun.ReplaceAllString(name, "_")
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
			b.WriteRune('_')
		case r == '"' || r == '<' || r == '>':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
