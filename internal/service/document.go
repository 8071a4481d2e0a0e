package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"carevault/internal/crypto"
	"carevault/internal/model"
	"carevault/internal/repository"
	"carevault/internal/storage"
)

// UploadInput carries the caller-declared attributes of an upload.
type UploadInput struct {
	OwnerID     string
	Filename    string
	ContentType string
	Size        int64
	Category    model.DocumentCategory
	Description string
	Tags        []string
}

// DownloadLink is a time-limited retrieval credential for one document.
type DownloadLink struct {
	URL       string    `json:"downloadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DocumentService is the vault orchestrator: it sequences cipher, object
// storage, and metadata persistence, and enforces ownership on every
// operation. Requester identity is always an explicit parameter, never
// ambient state.
type DocumentService interface {
	// Upload encrypts the file body, stores the ciphertext, and persists the
	// metadata record. The record is created only after the storage write
	// succeeds.
	Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error)

	// List returns documents the requester owns or has been granted.
	List(ctx context.Context, requesterID string, f repository.DocumentFilter) ([]model.Document, error)

	// Download issues a presigned retrieval URL. A missing record and a
	// record the requester may not read yield the same ErrNotFound.
	Download(ctx context.Context, id, requesterID string) (*DownloadLink, error)

	// Fetch retrieves and decrypts the document body, subject to the same
	// access rule as Download.
	Fetch(ctx context.Context, id, requesterID string) (*model.Document, []byte, error)

	// Share grants read access to the given users. Owner only; adding an
	// existing grantee is a no-op, and the owner is never added to its own
	// grantee set.
	Share(ctx context.Context, id, ownerID string, granteeIDs []string) (*model.Document, error)

	// Delete removes ciphertext first, then metadata. Owner only; a second
	// delete observes ErrNotFound.
	Delete(ctx context.Context, id, ownerID string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store       storage.Storage
	repo        repository.DocumentRepository
	keyMaterial string
}

// NewDocumentService constructs a new DocumentService. keyMaterial is the
// shared document-cipher secret from configuration.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, keyMaterial string) DocumentService {
	return &documentService{store: store, repo: repo, keyMaterial: keyMaterial}
}

// authorizeRead is the single access predicate used by every read path:
// the requester must be the owner or a grantee.
func authorizeRead(doc *model.Document, requesterID string) bool {
	return doc.OwnerID == requesterID || doc.SharedWithUser(requesterID)
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, in UploadInput) (*model.Document, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: file is required", ErrValidation)
	}
	if !in.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, in.Category)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	blob, err := crypto.Encrypt(plaintext, s.keyMaterial)
	if err != nil {
		return nil, fmt.Errorf("encrypt upload: %w", err)
	}

	key, err := s.store.Put(ctx, bytes.NewReader(blob), in.Filename, in.ContentType, int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("%w: upload ciphertext: %v", ErrStorage, err)
	}

	doc := &model.Document{
		OwnerID:     in.OwnerID,
		Filename:    in.Filename,
		ContentType: in.ContentType,
		Size:        int64(len(plaintext)),
		StorageKey:  key,
		Category:    in.Category,
		Description: in.Description,
		Tags:        in.Tags,
		IsEncrypted: true,
		Metadata:    map[string]string{},
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}

	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// The blob is already durable; remove it so no orphan remains. If
		// cleanup also fails, surface the orphaned key for reconciliation.
		if delErr := s.store.Delete(ctx, key); delErr != nil && !errors.Is(delErr, storage.ErrObjectNotFound) {
			pf := &PartialFailureError{OrphanedKey: key, Err: err}
			logOrphan(key, err, delErr)
			return nil, pf
		}
		return nil, fmt.Errorf("save metadata: %w", err)
	}
	return stored, nil
}

// List returns the requester's own plus shared-with-them documents.
func (s *documentService) List(ctx context.Context, requesterID string, f repository.DocumentFilter) ([]model.Document, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, f.Category)
	}
	return s.repo.ListForUser(ctx, requesterID, f)
}

// findAuthorized loads a record and applies the shared access predicate,
// collapsing missing and forbidden into the same ErrNotFound.
func (s *documentService) findAuthorized(ctx context.Context, id, requesterID string) (*model.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !authorizeRead(doc, requesterID) {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, id, requesterID string) (*DownloadLink, error) {
	doc, err := s.findAuthorized(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}

	url, expiresAt, err := s.store.PresignGet(ctx, doc.StorageKey, doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: presign download: %v", ErrStorage, err)
	}
	return &DownloadLink{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *documentService) Fetch(ctx context.Context, id, requesterID string) (*model.Document, []byte, error) {
	doc, err := s.findAuthorized(ctx, id, requesterID)
	if err != nil {
		return nil, nil, err
	}

	obj, _, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: fetch ciphertext: %v", ErrStorage, err)
	}
	defer obj.Close()

	blob, err := io.ReadAll(obj)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read ciphertext: %v", ErrStorage, err)
	}

	plaintext, err := crypto.Decrypt(blob, s.keyMaterial)
	if err != nil {
		return nil, nil, err
	}
	return doc, plaintext, nil
}

func (s *documentService) Share(ctx context.Context, id, ownerID string, granteeIDs []string) (*model.Document, error) {
	if len(granteeIDs) == 0 {
		return nil, fmt.Errorf("%w: userIds must not be empty", ErrValidation)
	}

	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Only the owner may extend the grantee set; non-owners see the same
	// ErrNotFound as for a missing record.
	if doc.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	// The owner is implicitly privileged and never enters its own set.
	grantees := make([]string, 0, len(granteeIDs))
	seen := make(map[string]bool)
	for _, g := range granteeIDs {
		if g == "" || g == ownerID || seen[g] {
			continue
		}
		seen[g] = true
		grantees = append(grantees, g)
	}

	if len(grantees) > 0 {
		if err := s.repo.AddShares(ctx, id, grantees); err != nil {
			return nil, fmt.Errorf("add shares: %w", err)
		}
	}
	return s.repo.FindByID(ctx, id)
}

func (s *documentService) Delete(ctx context.Context, id, ownerID string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if doc.OwnerID != ownerID {
		return ErrNotFound
	}

	// Ciphertext first: a failed storage delete aborts before the metadata
	// row is touched, so no metadata ever points at nothing. An already
	// missing blob is treated as idempotent success.
	if err := s.store.Delete(ctx, doc.StorageKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		return fmt.Errorf("%w: delete ciphertext: %v", ErrStorage, err)
	}
	return s.repo.Delete(ctx, id)
}

// logOrphan records an orphaned blob key for the reconciliation sweep.
func logOrphan(key string, cause, cleanupErr error) {
	entry := map[string]any{
		"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		"level":         "error",
		"component":     "vault",
		"event":         "orphaned_blob",
		"storage_key":   key,
		"cause":         cause.Error(),
		"cleanup_error": cleanupErr.Error(),
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
