package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// The shared_with set lives in the document_shares join table; its
// INSERT .. ON CONFLICT DO NOTHING is the atomic add-if-absent primitive.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

// documentColumns selects one document row with its shared_with set
// aggregated as a JSON array.
const documentColumns = `
	d.id, d.owner_id, d.filename, d.content_type, d.size, d.storage_key,
	d.category, d.description, d.tags, d.is_encrypted, d.metadata,
	d.created_at, d.updated_at,
	(SELECT COALESCE(json_agg(s.user_id ORDER BY s.created_at), '[]')
	   FROM document_shares s WHERE s.document_id = d.id) AS shared_with
`

func scanDocument(row interface{ Scan(...any) error }) (*model.Document, error) {
	var (
		d          model.Document
		tags       []byte
		metadata   []byte
		sharedWith []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.OwnerID,
		&d.Filename,
		&d.ContentType,
		&d.Size,
		&d.StorageKey,
		&d.Category,
		&d.Description,
		&tags,
		&d.IsEncrypted,
		&metadata,
		&d.CreatedAt,
		&d.UpdatedAt,
		&sharedWith,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tags, &d.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(metadata, &d.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal(sharedWith, &d.SharedWith); err != nil {
		return nil, fmt.Errorf("decode shared_with: %w", err)
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if d.SharedWith == nil {
		d.SharedWith = []string{}
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	tags, err := json.Marshal(doc.Tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	metadata, err := json.Marshal(doc.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	const q = `
		INSERT INTO documents (owner_id, filename, content_type, size, storage_key, category, description, tags, is_encrypted, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, owner_id, filename, content_type, size, storage_key, category, description, tags, is_encrypted, metadata, created_at, updated_at, '[]'::json AS shared_with
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.OwnerID,
		doc.Filename,
		doc.ContentType,
		doc.Size,
		doc.StorageKey,
		doc.Category,
		doc.Description,
		tags,
		doc.IsEncrypted,
		metadata,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID with the grantee set loaded.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// ListForUser returns documents owned by or shared with the user, newest first.
func (r *DocumentPostgres) ListForUser(ctx context.Context, userID string, f repository.DocumentFilter) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE (d.owner_id = $1 OR EXISTS (
			SELECT 1 FROM document_shares s WHERE s.document_id = d.id AND s.user_id = $1
		))`
	args := []any{userID}
	if f.Category != "" {
		args = append(args, f.Category)
		q += fmt.Sprintf(" AND d.category = $%d", len(args))
	}
	if f.SharedOnly {
		q += ` AND EXISTS (SELECT 1 FROM document_shares s WHERE s.document_id = d.id)`
	}
	q += ` ORDER BY d.created_at DESC, d.id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

func collectDocuments(rows *sql.Rows) ([]model.Document, error) {
	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// AddShares grants read access; existing grants are left untouched.
func (r *DocumentPostgres) AddShares(ctx context.Context, docID string, granteeIDs []string) error {
	const q = `
		INSERT INTO document_shares (document_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (document_id, user_id) DO NOTHING
	`
	for _, granteeID := range granteeIDs {
		if _, err := r.db.ExecContext(ctx, q, docID, granteeID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document by ID. It does not return an error if the row
// does not exist; shares cascade with the row.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

// ListRecentForOwner returns the owner's newest documents.
func (r *DocumentPostgres) ListRecentForOwner(ctx context.Context, ownerID string, limit int) ([]model.Document, error) {
	q := `SELECT ` + documentColumns + `
		FROM documents d
		WHERE d.owner_id = $1
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, ownerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// CountForOwner returns the number of documents the user owns.
func (r *DocumentPostgres) CountForOwner(ctx context.Context, ownerID string) (int, error) {
	const q = `SELECT COUNT(*) FROM documents WHERE owner_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
