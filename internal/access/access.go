package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"docvault/internal/model"
	"docvault/internal/repository"
)

// Deny reasons. These are expected outcomes, not faults; the HTTP layer maps
// them to 403/404 responses.
const (
	ReasonPermissionDenied   = "permission denied"
	ReasonDocumentIDRequired = "document id required"
	ReasonDocumentNotFound   = "document not found"
)

// Decision is the verdict of an access check. A deny carries a reason;
// infrastructure faults travel on the separate error channel instead.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Engine decides whether an actor may perform an action on a document,
// combining ownership and the role permission table. It performs only reads
// and has no side effects.
type Engine struct {
	docs  repository.DocumentRepository
	perms repository.PermissionRepository
}

// NewEngine constructs an Engine over the document directory and the
// read-only permission store.
func NewEngine(docs repository.DocumentRepository, perms repository.PermissionRepository) *Engine {
	return &Engine{docs: docs, perms: perms}
}

// CanAccess evaluates the authorization rules in order:
//
//  1. create has no target document; the role table alone decides.
//  2. read/update/delete require a document id.
//  3. The document must exist.
//  4. The owner is always allowed, regardless of the role table. Ownership
//     is an unconditional override: a revoked role must never lock an owner
//     out of their own documents.
//  5. Non-owners fall back to the (role, action) permission cell; absent
//     entries deny.
func (e *Engine) CanAccess(ctx context.Context, actor model.Actor, documentID string, action model.Action) (Decision, error) {
	if !action.Valid() {
		return Decision{}, fmt.Errorf("unknown action %q", action)
	}

	if action == model.ActionCreate {
		return e.roleDecision(ctx, actor.Role, action)
	}

	if documentID == "" {
		return deny(ReasonDocumentIDRequired), nil
	}

	doc, err := e.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deny(ReasonDocumentNotFound), nil
		}
		return Decision{}, fmt.Errorf("resolve document: %w", err)
	}

	if doc.OwnerID == actor.ID {
		return allow(), nil
	}

	return e.roleDecision(ctx, actor.Role, action)
}

// CanShare decides whether an actor may issue a download link for a
// document. Sharing is an owner-only privilege: the role table never grants
// it, so there is no fallback after the ownership check.
func (e *Engine) CanShare(ctx context.Context, actor model.Actor, documentID string) (Decision, error) {
	if documentID == "" {
		return deny(ReasonDocumentIDRequired), nil
	}
	doc, err := e.docs.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return deny(ReasonDocumentNotFound), nil
		}
		return Decision{}, fmt.Errorf("resolve document: %w", err)
	}
	if doc.OwnerID != actor.ID {
		return deny(ReasonPermissionDenied), nil
	}
	return allow(), nil
}

func (e *Engine) roleDecision(ctx context.Context, role string, action model.Action) (Decision, error) {
	allowed, err := e.perms.HasPermission(ctx, role, action)
	if err != nil {
		return Decision{}, fmt.Errorf("lookup permission: %w", err)
	}
	if !allowed {
		return deny(ReasonPermissionDenied), nil
	}
	return allow(), nil
}
