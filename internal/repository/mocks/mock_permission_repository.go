package mocks

import (
	"context"

	"docvault/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockPermissionRepository struct {
	mock.Mock
}

func (m *MockPermissionRepository) HasPermission(ctx context.Context, role string, action model.Action) (bool, error) {
	args := m.Called(ctx, role, action)
	return args.Bool(0), args.Error(1)
}
