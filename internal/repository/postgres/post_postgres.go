package postgres

import (
	"context"
	"database/sql"
	"errors"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// PostPostgres is a PostgreSQL implementation of repository.PostRepository.
// Author names are denormalized from the users table at read time.
type PostPostgres struct {
	db *sql.DB
}

// NewPostPostgres creates a new PostPostgres repository.
func NewPostPostgres(db *sql.DB) *PostPostgres {
	return &PostPostgres{db: db}
}

var _ repository.PostRepository = (*PostPostgres)(nil)

// CreatePost inserts a post and returns the stored record with the author
// name resolved.
func (r *PostPostgres) CreatePost(ctx context.Context, p *model.Post) (*model.Post, error) {
	const q = `
		WITH inserted AS (
			INSERT INTO posts (author_id, title, content)
			VALUES ($1, $2, $3)
			RETURNING id, author_id, title, content, created_at
		)
		SELECT i.id, i.author_id, u.first_name || ' ' || u.last_name, i.title, i.content, i.created_at
		FROM inserted i JOIN users u ON u.id = i.author_id
	`
	var out model.Post
	if err := r.db.QueryRowContext(ctx, q, p.AuthorID, p.Title, p.Content).Scan(
		&out.ID, &out.AuthorID, &out.AuthorName, &out.Title, &out.Content, &out.CreatedAt,
	); err != nil {
		return nil, err
	}
	out.Comments = []model.Comment{}
	return &out, nil
}

// ListPosts returns posts newest first with their comments loaded oldest first.
func (r *PostPostgres) ListPosts(ctx context.Context) ([]model.Post, error) {
	const qPosts = `
		SELECT p.id, p.author_id, u.first_name || ' ' || u.last_name, p.title, p.content, p.created_at
		FROM posts p JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC, p.id DESC
	`
	rows, err := r.db.QueryContext(ctx, qPosts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]model.Post, 0)
	index := make(map[string]int)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Content, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Comments = []model.Comment{}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	const qComments = `
		SELECT c.id, c.post_id, c.author_id, u.first_name || ' ' || u.last_name, c.content, c.created_at
		FROM comments c JOIN users u ON u.id = c.author_id
		ORDER BY c.created_at ASC, c.id ASC
	`
	crows, err := r.db.QueryContext(ctx, qComments)
	if err != nil {
		return nil, err
	}
	defer crows.Close()

	for crows.Next() {
		var c model.Comment
		if err := crows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// AddComment appends a comment to an existing post. The foreign key makes a
// missing post surface as sql.ErrNoRows.
func (r *PostPostgres) AddComment(ctx context.Context, c *model.Comment) (*model.Comment, error) {
	const qExists = `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, qExists, c.PostID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, sql.ErrNoRows
	}

	const q = `
		WITH inserted AS (
			INSERT INTO comments (post_id, author_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, post_id, author_id, content, created_at
		)
		SELECT i.id, i.post_id, i.author_id, u.first_name || ' ' || u.last_name, i.content, i.created_at
		FROM inserted i JOIN users u ON u.id = i.author_id
	`
	var out model.Comment
	if err := r.db.QueryRowContext(ctx, q, c.PostID, c.AuthorID, c.Content).Scan(
		&out.ID, &out.PostID, &out.AuthorID, &out.AuthorName, &out.Content, &out.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &out, nil
}
