package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"carevault/internal/model"
	"carevault/internal/repository"
	"carevault/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, r io.Reader, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, r, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, requesterID string, f repository.DocumentFilter) ([]model.Document, error) {
	args := m.Called(ctx, requesterID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id, requesterID string) (*service.DownloadLink, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadLink), args.Error(1)
}

func (m *MockDocumentService) Fetch(ctx context.Context, id, requesterID string) (*model.Document, []byte, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Document), args.Get(1).([]byte), args.Error(2)
}

func (m *MockDocumentService) Share(ctx context.Context, id, ownerID string, granteeIDs []string) (*model.Document, error) {
	args := m.Called(ctx, id, ownerID, granteeIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id, ownerID string) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}
