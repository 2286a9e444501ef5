package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/example/blazehunter/internal/models"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) VerifyAdminKey(ctx context.Context, creds Credentials) (bool, error) {
	args := m.Called(ctx, creds)
	return args.Bool(0), args.Error(1)
}

func (m *mockGateway) List(ctx context.Context, category string) ([]models.ContentItem, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ContentItem), args.Error(1)
}

func (m *mockGateway) Upsert(ctx context.Context, item models.ContentItem, creds Credentials) (models.ContentItem, error) {
	args := m.Called(ctx, item, creds)
	return args.Get(0).(models.ContentItem), args.Error(1)
}

func (m *mockGateway) Delete(ctx context.Context, ids []int64, creds Credentials) error {
	return m.Called(ctx, ids, creds).Error(0)
}

func (m *mockGateway) GetHomeSettings(ctx context.Context) (*models.HomeSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HomeSettings), args.Error(1)
}

func (m *mockGateway) SetHomeSettings(ctx context.Context, settings models.HomeSettings, creds Credentials) error {
	return m.Called(ctx, settings, creds).Error(0)
}

func (m *mockGateway) ListAdmins(ctx context.Context, creds Credentials) ([]models.AdminAccount, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AdminAccount), args.Error(1)
}

func (m *mockGateway) ManageAdmin(ctx context.Context, action AdminAction, target AdminTarget, creds Credentials) error {
	return m.Called(ctx, action, target, creds).Error(0)
}
