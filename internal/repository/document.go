package repository

import (
	"context"

	"carevault/internal/model"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (e.g., postgres) inside this directory.

// DocumentFilter narrows a document listing. Zero value means no filtering.
type DocumentFilter struct {
	// Category restricts to one category when non-empty.
	Category model.DocumentCategory
	// SharedOnly restricts to documents that have at least one grantee.
	SharedOnly bool
}

// DocumentRepository defines data access for vault documents using SQL
// queries only, no business logic.
// Every read is scoped by owner or grantee id; ownership rules themselves
// live in the service layer.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row,
	// including DB-generated values.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document with its SharedWith set loaded.
	// Returns sql.ErrNoRows when absent.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// ListForUser returns documents the user owns or has been granted,
	// newest first.
	ListForUser(ctx context.Context, userID string, f DocumentFilter) ([]model.Document, error)

	// AddShares grants read access to the given user ids. Adding an existing
	// grantee is a no-op (atomic add-if-absent).
	AddShares(ctx context.Context, docID string, granteeIDs []string) error

	// Delete removes a document row by id. Returns nil if the row was
	// already gone.
	Delete(ctx context.Context, id string) error

	// ListRecentForOwner returns the owner's newest documents.
	ListRecentForOwner(ctx context.Context, ownerID string, limit int) ([]model.Document, error)

	// CountForOwner returns the total number of documents the user owns.
	CountForOwner(ctx context.Context, ownerID string) (int, error)
}
