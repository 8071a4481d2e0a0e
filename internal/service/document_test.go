package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"carevault/internal/crypto"
	"carevault/internal/model"
	"carevault/internal/repository"
	repoMocks "carevault/internal/repository/mocks"
	"carevault/internal/storage"
	storeMocks "carevault/internal/storage/mocks"
)

const testKey = "unit-test-key-material"

func expiryStub() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()

	baseInput := UploadInput{
		OwnerID:     "owner-1",
		Filename:    "labs.pdf",
		ContentType: "application/pdf",
		Size:        11,
		Category:    model.CategoryLabResult,
	}

	tests := []struct {
		name       string
		input      UploadInput
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader
		wantErr    error
		wantErrMsg string
		checkRes   func(t *testing.T, doc *model.Document)
	}{
		{
			name:  "happy path",
			input: baseInput,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				// The stored blob is iv(16) + tag(16) + ciphertext, so the
				// stored size exceeds the plaintext by exactly 32 bytes.
				mStore.On("Put", ctx, mock.Anything, "labs.pdf", "application/pdf", int64(11+32)).
					Return("documents/123-labs.pdf", nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.OwnerID == "owner-1" &&
						doc.StorageKey == "documents/123-labs.pdf" &&
						doc.Size == 11 &&
						doc.IsEncrypted
				})).Return(&model.Document{ID: "gen-id", OwnerID: "owner-1"}, nil)
				return strings.NewReader("hello world")
			},
			checkRes: func(t *testing.T, doc *model.Document) {
				assert.Equal(t, "gen-id", doc.ID)
			},
		},
		{
			name:  "zero byte file still produces a blob",
			input: UploadInput{OwnerID: "owner-1", Filename: "empty.txt", ContentType: "text/plain", Category: model.CategoryOther},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, "empty.txt", "text/plain", int64(32)).
					Return("documents/123-empty.txt", nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.Size == 0 && doc.IsEncrypted
				})).Return(&model.Document{ID: "gen-id"}, nil)
				return strings.NewReader("")
			},
		},
		{
			name:  "nil reader",
			input: baseInput,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return nil
			},
			wantErr: ErrValidation,
		},
		{
			name:  "unknown category",
			input: UploadInput{OwnerID: "owner-1", Filename: "x.txt", Category: "selfie"},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				return strings.NewReader("hello")
			},
			wantErr: ErrValidation,
		},
		{
			name:  "storage error",
			input: baseInput,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, "labs.pdf", "application/pdf", mock.Anything).
					Return("", errors.New("minio down"))
				return strings.NewReader("hello world")
			},
			wantErr: ErrStorage,
		},
		{
			name:  "metadata error with successful rollback",
			input: baseInput,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, "labs.pdf", "application/pdf", mock.Anything).
					Return("documents/123-labs.pdf", nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, "documents/123-labs.pdf").Return(nil)
				return strings.NewReader("hello world")
			},
			wantErrMsg: "save metadata: db fail",
		},
		{
			name:  "metadata error with failed rollback reports the orphan",
			input: baseInput,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) io.Reader {
				mStore.On("Put", ctx, mock.Anything, "labs.pdf", "application/pdf", mock.Anything).
					Return("documents/123-labs.pdf", nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, "documents/123-labs.pdf").Return(errors.New("minio down"))
				return strings.NewReader("hello world")
			},
			wantErrMsg: "documents/123-labs.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, testKey)

			r := tt.setupMocks(mStore, mRepo)

			doc, err := svc.Upload(ctx, r, tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, doc)
				if tt.checkRes != nil {
					tt.checkRes(t, doc)
				}
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Upload_PartialFailure(t *testing.T) {
	ctx := context.Background()
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockDocumentRepository)
	svc := NewDocumentService(mStore, mRepo, testKey)

	mStore.On("Put", ctx, mock.Anything, "labs.pdf", "application/pdf", mock.Anything).
		Return("documents/orphan-key", nil)
	mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
	mStore.On("Delete", ctx, "documents/orphan-key").Return(errors.New("minio down"))

	_, err := svc.Upload(ctx, strings.NewReader("hello"), UploadInput{
		OwnerID: "owner-1", Filename: "labs.pdf", ContentType: "application/pdf", Category: model.CategoryLabResult,
	})

	var pf *PartialFailureError
	assert.ErrorAs(t, err, &pf)
	assert.Equal(t, "documents/orphan-key", pf.OrphanedKey)
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()

	doc := &model.Document{
		ID:         "doc-1",
		OwnerID:    "owner-1",
		Filename:   "labs.pdf",
		StorageKey: "documents/123-labs.pdf",
		SharedWith: []string{"friend-1"},
	}

	tests := []struct {
		name        string
		requesterID string
		setupMocks  func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr     error
	}{
		{
			name:        "owner gets a link",
			requesterID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("PresignGet", ctx, "documents/123-labs.pdf", "labs.pdf").
					Return("https://minio/presigned", expiryStub(), nil)
			},
		},
		{
			name:        "grantee gets a link",
			requesterID: "friend-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("PresignGet", ctx, "documents/123-labs.pdf", "labs.pdf").
					Return("https://minio/presigned", expiryStub(), nil)
			},
		},
		{
			name:        "stranger sees not found",
			requesterID: "stranger",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name:        "missing record",
			requesterID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:        "presign error",
			requesterID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("PresignGet", ctx, "documents/123-labs.pdf", "labs.pdf").
					Return("", expiryStub(), errors.New("minio down"))
			},
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, testKey)

			tt.setupMocks(mStore, mRepo)

			link, err := svc.Download(ctx, "doc-1", tt.requesterID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, link)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "https://minio/presigned", link.URL)
				assert.False(t, link.ExpiresAt.IsZero())
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Fetch(t *testing.T) {
	ctx := context.Background()

	plaintext := []byte("patient lab results")
	blob, err := crypto.Encrypt(plaintext, testKey)
	assert.NoError(t, err)

	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StorageKey: "documents/k"}

	t.Run("round trip decrypts the stored blob", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, testKey)

		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mStore.On("Get", ctx, "documents/k").
			Return(io.NopCloser(bytes.NewReader(blob)), storage.ObjectInfo{Key: "documents/k"}, nil)

		got, body, err := svc.Fetch(ctx, "doc-1", "owner-1")
		assert.NoError(t, err)
		assert.Equal(t, "doc-1", got.ID)
		assert.Equal(t, plaintext, body)
		mStore.AssertExpectations(t)
		mRepo.AssertExpectations(t)
	})

	t.Run("wrong key surfaces an integrity error", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, "a-different-key")

		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
		mStore.On("Get", ctx, "documents/k").
			Return(io.NopCloser(bytes.NewReader(blob)), storage.ObjectInfo{Key: "documents/k"}, nil)

		_, _, err := svc.Fetch(ctx, "doc-1", "owner-1")
		assert.ErrorIs(t, err, crypto.ErrIntegrity)
	})

	t.Run("stranger sees not found without touching storage", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, testKey)

		mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)

		_, _, err := svc.Fetch(ctx, "doc-1", "stranger")
		assert.ErrorIs(t, err, ErrNotFound)
		mStore.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	})
}

func TestDocumentService_Share(t *testing.T) {
	ctx := context.Background()

	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", SharedWith: []string{"friend-1"}}

	tests := []struct {
		name       string
		ownerID    string
		grantees   []string
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
	}{
		{
			name:     "owner shares with new users",
			ownerID:  "owner-1",
			grantees: []string{"friend-2", "friend-3"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil).Once()
				mRepo.On("AddShares", ctx, "doc-1", []string{"friend-2", "friend-3"}).Return(nil)
				mRepo.On("FindByID", ctx, "doc-1").
					Return(&model.Document{ID: "doc-1", OwnerID: "owner-1", SharedWith: []string{"friend-1", "friend-2", "friend-3"}}, nil).Once()
			},
		},
		{
			name:     "duplicates owner and blanks are filtered before the write",
			ownerID:  "owner-1",
			grantees: []string{"friend-2", "friend-2", "owner-1", ""},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mRepo.On("AddShares", ctx, "doc-1", []string{"friend-2"}).Return(nil)
			},
		},
		{
			name:     "grant list that filters to nothing skips the write",
			ownerID:  "owner-1",
			grantees: []string{"owner-1", ""},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
			},
		},
		{
			name:       "empty grantee list",
			ownerID:    "owner-1",
			grantees:   nil,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:     "non owner sees not found",
			ownerID:  "friend-1",
			grantees: []string{"friend-2"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name:     "missing record",
			ownerID:  "owner-1",
			grantees: []string{"friend-2"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(nil, mRepo, testKey)

			tt.setupMocks(mRepo)

			res, err := svc.Share(ctx, "doc-1", tt.ownerID, tt.grantees)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, res)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	doc := &model.Document{ID: "doc-1", OwnerID: "owner-1", StorageKey: "documents/k"}

	tests := []struct {
		name       string
		ownerID    string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		check      func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
	}{
		{
			name:    "ciphertext goes before metadata",
			ownerID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("Delete", ctx, "documents/k").Return(nil)
				mRepo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name:    "already missing blob is tolerated",
			ownerID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("Delete", ctx, "documents/k").Return(storage.ErrObjectNotFound)
				mRepo.On("Delete", ctx, "doc-1").Return(nil)
			},
		},
		{
			name:    "storage failure keeps the metadata row",
			ownerID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
				mStore.On("Delete", ctx, "documents/k").Return(errors.New("minio down"))
			},
			wantErr: ErrStorage,
			check: func(t *testing.T, mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			},
		},
		{
			name:    "non owner sees not found",
			ownerID: "friend-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(doc, nil)
			},
			wantErr: ErrNotFound,
		},
		{
			name:    "second delete observes not found",
			ownerID: "owner-1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, "doc-1").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, testKey)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, "doc-1", tt.ownerID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, mStore, mRepo)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the filter through", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo, testKey)

		f := repository.DocumentFilter{Category: model.CategoryPrescription}
		mRepo.On("ListForUser", ctx, "user-1", f).Return([]model.Document{{ID: "1"}, {ID: "2"}}, nil)

		docs, err := svc.List(ctx, "user-1", f)
		assert.NoError(t, err)
		assert.Len(t, docs, 2)
		mRepo.AssertExpectations(t)
	})

	t.Run("rejects an unknown category", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(nil, mRepo, testKey)

		_, err := svc.List(ctx, "user-1", repository.DocumentFilter{Category: "selfie"})
		assert.ErrorIs(t, err, ErrValidation)
		mRepo.AssertNotCalled(t, "ListForUser", mock.Anything, mock.Anything, mock.Anything)
	})
}
