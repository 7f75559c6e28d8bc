package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockDownloadService struct {
	mock.Mock
}

func (m *MockDownloadService) GenerateLink(ctx context.Context, actor model.Actor, documentID, baseURL string) (string, error) {
	args := m.Called(ctx, actor, documentID, baseURL)
	return args.String(0), args.Error(1)
}

func (m *MockDownloadService) Redeem(ctx context.Context, tokenString string) (*service.DownloadResult, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}
