package mocks

import (
	"context"

	"vodgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockViewerAccessRepository struct {
	mock.Mock
}

func (m *MockViewerAccessRepository) FindByEmail(ctx context.Context, email string) (*model.ViewerAccess, error) {
	args := m.Called(ctx, email)
	if va, ok := args.Get(0).(*model.ViewerAccess); ok {
		return va, args.Error(1)
	}
	return nil, args.Error(1)
}
