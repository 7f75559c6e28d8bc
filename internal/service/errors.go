package service

import "errors"

// Expected outcomes are sentinel errors so handlers can map them to status
// codes; anything else propagating out of a service is an infrastructure
// fault and becomes a 500.
var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("document not found")
	ErrReaderNil  = errors.New("reader is nil")

	// ErrAccessDenied is a role-table or ownership denial (403).
	ErrAccessDenied = errors.New("access denied")
	// ErrNotOwner denies share-link issuance to non-owners (403).
	ErrNotOwner = errors.New("not the document owner")
	// ErrBlobMissing means the record exists but its object is gone (404).
	ErrBlobMissing = errors.New("file not found in storage")
	// ErrPartialDelete reports that the blob was removed but the record
	// (or vice versa) was not, so orphaned state may exist.
	ErrPartialDelete = errors.New("document partially deleted")

	ErrEmailTaken         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)
