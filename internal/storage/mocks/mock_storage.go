package mocks

import (
	"context"
	"io"
	"time"

	"carevault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Put(ctx context.Context, r io.Reader, suggestedName, contentType string, size int64) (string, error) {
	args := m.Called(ctx, r, suggestedName, contentType, size)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(storage.ObjectInfo), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key, downloadFilename string) (string, time.Time, error) {
	args := m.Called(ctx, key, downloadFilename)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
