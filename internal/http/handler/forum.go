package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carevault/internal/http/middleware"
	"carevault/internal/service"
)

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost publishes a forum post authored by the caller.
func CreatePost(svc service.ForumService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req postRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		post, err := svc.CreatePost(c.UserContext(), middleware.UserID(c), req.Title, req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(post)
	}
}

// ListPosts returns all forum posts with their comments, newest first.
func ListPosts(svc service.ForumService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		posts, err := svc.ListPosts(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"posts": posts, "total": len(posts)})
	}
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment appends a comment to a post.
func AddComment(svc service.ForumService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		postID := c.Params("id")
		if _, err := uuid.Parse(postID); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req commentRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		comment, err := svc.AddComment(c.UserContext(), postID, middleware.UserID(c), req.Content)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(comment)
	}
}
