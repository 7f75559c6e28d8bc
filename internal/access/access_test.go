package access

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_CanAccess_Create(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{ID: "user-1", Role: "User"}

	t.Run("role allowed", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mPerms.On("HasPermission", ctx, "User", model.ActionCreate).Return(true, nil)

		dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, actor, "", model.ActionCreate)

		require.NoError(t, err)
		assert.True(t, dec.Allowed)
		mDocs.AssertNotCalled(t, "FindByID")
	})

	t.Run("role denied", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mPerms.On("HasPermission", ctx, "User", model.ActionCreate).Return(false, nil)

		dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, actor, "", model.ActionCreate)

		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Equal(t, ReasonPermissionDenied, dec.Reason)
	})
}

func TestEngine_CanAccess_MissingDocumentID(t *testing.T) {
	ctx := context.Background()
	mDocs := new(repoMocks.MockDocumentRepository)
	mPerms := new(repoMocks.MockPermissionRepository)

	for _, action := range []model.Action{model.ActionRead, model.ActionUpdate, model.ActionDelete} {
		dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, model.Actor{ID: "u", Role: "User"}, "", action)

		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Equal(t, ReasonDocumentIDRequired, dec.Reason)
	}
	mPerms.AssertNotCalled(t, "HasPermission")
}

func TestEngine_CanAccess_DocumentNotFound(t *testing.T) {
	ctx := context.Background()
	mDocs := new(repoMocks.MockDocumentRepository)
	mPerms := new(repoMocks.MockPermissionRepository)
	mDocs.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows)

	dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, model.Actor{ID: "u", Role: "Admin"}, "missing", model.ActionDelete)

	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Equal(t, ReasonDocumentNotFound, dec.Reason)
}

func TestEngine_CanAccess_OwnershipOverridesRoleTable(t *testing.T) {
	ctx := context.Background()
	owner := model.Actor{ID: "owner-1", Role: "User"}
	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1"}

	// The owner must be allowed every action even when the role table would
	// deny it; the permission store must not even be consulted.
	for _, action := range []model.Action{model.ActionRead, model.ActionUpdate, model.ActionDelete} {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)

		dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, owner, "doc-1", action)

		require.NoError(t, err)
		assert.True(t, dec.Allowed, "action %s", action)
		mPerms.AssertNotCalled(t, "HasPermission")
	}
}

func TestEngine_CanAccess_NonOwnerFollowsRoleTable(t *testing.T) {
	ctx := context.Background()
	stranger := model.Actor{ID: "user-2", Role: "User"}
	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1"}

	tests := []struct {
		name    string
		allowed bool
	}{
		{"table allows", true},
		{"table denies", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mDocs := new(repoMocks.MockDocumentRepository)
			mPerms := new(repoMocks.MockPermissionRepository)
			mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)
			mPerms.On("HasPermission", ctx, "User", model.ActionDelete).Return(tt.allowed, nil)

			dec, err := NewEngine(mDocs, mPerms).CanAccess(ctx, stranger, "doc-1", model.ActionDelete)

			require.NoError(t, err)
			assert.Equal(t, tt.allowed, dec.Allowed)
			if !tt.allowed {
				assert.Equal(t, ReasonPermissionDenied, dec.Reason)
			}
		})
	}
}

func TestEngine_CanAccess_InfrastructureFaults(t *testing.T) {
	ctx := context.Background()
	actor := model.Actor{ID: "u", Role: "User"}

	t.Run("document store unreachable", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mDocs.On("FindByID", ctx, "doc-1").Return(nil, errors.New("connection refused"))

		_, err := NewEngine(mDocs, mPerms).CanAccess(ctx, actor, "doc-1", model.ActionRead)

		assert.Error(t, err)
	})

	t.Run("permission store unreachable", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mPerms.On("HasPermission", ctx, "User", model.ActionCreate).Return(false, errors.New("connection refused"))

		_, err := NewEngine(mDocs, mPerms).CanAccess(ctx, actor, "", model.ActionCreate)

		assert.Error(t, err)
	})
}

func TestEngine_CanShare(t *testing.T) {
	ctx := context.Background()
	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1"}

	t.Run("owner may share", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)

		dec, err := NewEngine(mDocs, mPerms).CanShare(ctx, model.Actor{ID: "owner-1", Role: "User"}, "doc-1")

		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	})

	t.Run("non-owner denied even as Admin", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mDocs.On("FindByID", ctx, "doc-1").Return(doc, nil)

		dec, err := NewEngine(mDocs, mPerms).CanShare(ctx, model.Actor{ID: "admin-1", Role: "Admin"}, "doc-1")

		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Equal(t, ReasonPermissionDenied, dec.Reason)
		mPerms.AssertNotCalled(t, "HasPermission")
	})

	t.Run("missing document", func(t *testing.T) {
		mDocs := new(repoMocks.MockDocumentRepository)
		mPerms := new(repoMocks.MockPermissionRepository)
		mDocs.On("FindByID", ctx, "gone").Return(nil, sql.ErrNoRows)

		dec, err := NewEngine(mDocs, mPerms).CanShare(ctx, model.Actor{ID: "owner-1"}, "gone")

		require.NoError(t, err)
		assert.False(t, dec.Allowed)
		assert.Equal(t, ReasonDocumentNotFound, dec.Reason)
	})

	t.Run("missing id", func(t *testing.T) {
		dec, err := NewEngine(new(repoMocks.MockDocumentRepository), new(repoMocks.MockPermissionRepository)).
			CanShare(ctx, model.Actor{ID: "owner-1"}, "")

		require.NoError(t, err)
		assert.Equal(t, ReasonDocumentIDRequired, dec.Reason)
	})
}

func TestEngine_CanAccess_UnknownAction(t *testing.T) {
	ctx := context.Background()
	mDocs := new(repoMocks.MockDocumentRepository)
	mPerms := new(repoMocks.MockPermissionRepository)

	_, err := NewEngine(mDocs, mPerms).CanAccess(ctx, model.Actor{}, "doc-1", model.Action("publish"))

	assert.Error(t, err)
}
