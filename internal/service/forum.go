package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carevault/internal/model"
	"carevault/internal/repository"
)

// ForumService covers the community forum use cases.
type ForumService interface {
	CreatePost(ctx context.Context, authorID, title, content string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	AddComment(ctx context.Context, postID, authorID, content string) (*model.Comment, error)
}

type forumService struct {
	repo repository.PostRepository
}

// NewForumService constructs a new ForumService.
func NewForumService(repo repository.PostRepository) ForumService {
	return &forumService{repo: repo}
}

func (s *forumService) CreatePost(ctx context.Context, authorID, title, content string) (*model.Post, error) {
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}
	return s.repo.CreatePost(ctx, &model.Post{AuthorID: authorID, Title: title, Content: content})
}

func (s *forumService) ListPosts(ctx context.Context) ([]model.Post, error) {
	return s.repo.ListPosts(ctx)
}

func (s *forumService) AddComment(ctx context.Context, postID, authorID, content string) (*model.Comment, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	comment, err := s.repo.AddComment(ctx, &model.Comment{PostID: postID, AuthorID: authorID, Content: content})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return comment, nil
}
