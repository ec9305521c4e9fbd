package mocks

import (
	"context"

	"vodgate/internal/media"
	"vodgate/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockStreamService struct {
	mock.Mock
}

func (m *MockStreamService) Open(ctx context.Context, req media.AssetRequest, rangeHeader string) (*service.Stream, error) {
	args := m.Called(ctx, req, rangeHeader)
	if s, ok := args.Get(0).(*service.Stream); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
