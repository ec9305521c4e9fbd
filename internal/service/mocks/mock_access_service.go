package mocks

import (
	"context"

	"vodgate/internal/media"
	"vodgate/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) Evaluate(ctx context.Context, category media.Category, ident *model.Identity) (model.AccessDecision, error) {
	args := m.Called(ctx, category, ident)
	return args.Get(0).(model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) CanWatch(ctx context.Context, ident *model.Identity) (bool, error) {
	args := m.Called(ctx, ident)
	return args.Bool(0), args.Error(1)
}
