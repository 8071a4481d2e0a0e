package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"carevault/internal/model"
	"carevault/internal/repository"
)

var documentRowColumns = []string{
	"id", "owner_id", "filename", "content_type", "size", "storage_key",
	"category", "description", "tags", "is_encrypted", "metadata",
	"created_at", "updated_at", "shared_with",
}

func documentRow(id, ownerID, sharedWith string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(documentRowColumns).AddRow(
		id, ownerID, "labs.pdf", "application/pdf", 123, "documents/123-labs.pdf",
		"lab_result", "", []byte(`["cardiology"]`), true, []byte(`{}`),
		now, now, []byte(sharedWith),
	)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	doc := &model.Document{
		OwnerID:     "owner-1",
		Filename:    "labs.pdf",
		ContentType: "application/pdf",
		Size:        123,
		StorageKey:  "documents/123-labs.pdf",
		Category:    model.CategoryLabResult,
		Tags:        []string{"cardiology"},
		IsEncrypted: true,
		Metadata:    map[string]string{},
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.OwnerID, doc.Filename, doc.ContentType, doc.Size, doc.StorageKey,
			doc.Category, doc.Description, []byte(`["cardiology"]`), doc.IsEncrypted, []byte(`{}`)).
		WillReturnRows(documentRow("gen-id", "owner-1", `[]`))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.Equal(t, "gen-id", result.ID)
	assert.Empty(t, result.SharedWith)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found with grantee set", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d WHERE d.id = ?").
			WithArgs("doc-1").
			WillReturnRows(documentRow("doc-1", "owner-1", `["friend-1","friend-2"]`))

		doc, err := repo.FindByID(ctx, "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, "doc-1", doc.ID)
		assert.Equal(t, []string{"friend-1", "friend-2"}, doc.SharedWith)
		assert.Equal(t, []string{"cardiology"}, doc.Tags)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d WHERE d.id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, doc)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_ListForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("owned and shared", func(t *testing.T) {
		rows := documentRow("doc-1", "owner-1", `[]`)
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("owner-1").
			WillReturnRows(rows)

		docs, err := repo.ListForUser(ctx, "owner-1", repository.DocumentFilter{})

		assert.NoError(t, err)
		assert.Len(t, docs, 1)
	})

	t.Run("category filter adds an argument", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents d").
			WithArgs("owner-1", model.CategoryPrescription).
			WillReturnRows(sqlmock.NewRows(documentRowColumns))

		docs, err := repo.ListForUser(ctx, "owner-1", repository.DocumentFilter{Category: model.CategoryPrescription})

		assert.NoError(t, err)
		assert.Empty(t, docs)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_AddShares(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO document_shares").
		WithArgs("doc-1", "friend-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// a repeated grant conflicts and affects no rows
	mock.ExpectExec("INSERT INTO document_shares").
		WithArgs("doc-1", "friend-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.AddShares(ctx, "doc-1", []string{"friend-1", "friend-2"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("deletes the row", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id =").
			WithArgs("doc-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "doc-1"))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM documents WHERE id =").
			WithArgs("gone").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "gone"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_CountForOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	total, err := repo.CountForOwner(ctx, "owner-1")

	assert.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
