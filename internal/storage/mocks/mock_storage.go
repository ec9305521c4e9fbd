package mocks

import (
	"context"
	"io"

	"vodgate/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}

func (m *MockMediaStore) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	args := m.Called(ctx, key, start, end)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}
