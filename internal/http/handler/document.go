package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"carevault/internal/http/middleware"
	"carevault/internal/model"
	"carevault/internal/repository"
	"carevault/internal/service"
)

// UploadDocument accepts a multipart upload: a file field, a required
// category, an optional description, and tags as a JSON string array.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		category := c.FormValue("category")
		if category == "" {
			return writeError(c, fiber.StatusBadRequest, "CATEGORY_REQUIRED", "category is required")
		}

		tags, err := parseTags(c.FormValue("tags"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_TAGS", "tags must be a JSON string array")
		}

		doc, err := svc.Upload(c.UserContext(), f, service.UploadInput{
			OwnerID:     middleware.UserID(c),
			Filename:    fh.Filename,
			ContentType: ct,
			Size:        fh.Size,
			Category:    model.DocumentCategory(category),
			Description: c.FormValue("description"),
			Tags:        tags,
		})
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns documents the caller owns or has been granted,
// optionally filtered by ?category= and ?shared=true.
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := repository.DocumentFilter{
			Category:   model.DocumentCategory(c.Query("category")),
			SharedOnly: c.QueryBool("shared"),
		}
		docs, err := svc.List(c.UserContext(), middleware.UserID(c), f)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"documents": docs, "total": len(docs)})
	}
}

// DownloadDocument issues a presigned, time-limited download URL.
func DownloadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.Download(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(link)
	}
}

// FetchDocument streams the decrypted document body through the API.
func FetchDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, body, err := svc.Fetch(c.UserContext(), id, middleware.UserID(c))
		if err != nil {
			return serviceError(c, err)
		}
		c.Set(fiber.HeaderContentType, doc.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
		return c.Send(body)
	}
}

type shareRequest struct {
	UserIDs []string `json:"userIds"`
}

// ShareDocument grants read access to the listed users. Owner only.
func ShareDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req shareRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Share(c.UserContext(), id, middleware.UserID(c), req.UserIDs)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes the ciphertext and metadata. Owner only.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, middleware.UserID(c)); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// parseTags decodes the multipart tags field, a JSON string array. Blank
// entries are dropped; an empty field means no tags.
func parseTags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	var tags []string
	for _, t := range decoded {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}
