package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"storeit/internal/http/middleware"
	"storeit/internal/service"
)

type renameFileRequest struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Path      string `json:"path"`
}

type updateFileUsersRequest struct {
	Emails []string `json:"emails"`
	Path   string   `json:"path"`
}

type deleteFileRequest struct {
	BucketFileID string `json:"bucketFileId"`
	Path         string `json:"path"`
}

// UploadFile accepts a multipart upload under the "file" field and stores it
// for the authenticated user.
func UploadFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "multipart field 'file' is required")
		}

		src, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "unreadable file upload")
		}
		defer src.Close()

		contentType := fh.Header.Get(fiber.HeaderContentType)
		path := c.FormValue("path")

		file, err := files.Upload(c.UserContext(), principal, src, fh.Filename, contentType, fh.Size, path)
		if err != nil {
			return writeFileError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// ListFiles returns files owned by or shared with the authenticated user.
//
// Query parameters: type (comma-separated categories), search, sort, limit,
// offset, path.
func ListFiles(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		q := service.FileListQuery{
			Search: c.Query("search"),
			Sort:   c.Query("sort"),
			Limit:  c.QueryInt("limit", 10),
			Offset: c.QueryInt("offset", 0),
			Path:   c.Query("path"),
		}
		if raw := c.Query("type"); raw != "" {
			for _, t := range strings.Split(raw, ",") {
				if t = strings.TrimSpace(t); t != "" {
					q.Categories = append(q.Categories, t)
				}
			}
		}

		res, err := files.List(c.UserContext(), principal, q)
		if err != nil {
			return writeFileError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(res)
	}
}

// RenameFile updates the display name of an owned file.
func RenameFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid file id")
		}

		var req renameFileRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		if err := files.Rename(c.UserContext(), principal, id, req.Name, req.Extension, req.Path); err != nil {
			return writeFileError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	}
}

// UpdateFileUsers replaces the share list of an owned file.
func UpdateFileUsers(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid file id")
		}

		var req updateFileUsersRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		if err := files.UpdateFileUsers(c.UserContext(), principal, id, req.Emails, req.Path); err != nil {
			return writeFileError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
	}
}

// DeleteFile removes an owned file: metadata record first, stored bytes after.
func DeleteFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid file id")
		}

		var req deleteFileRequest
		// Body is optional; bucketFileId is a consistency check only.
		_ = c.BodyParser(&req)

		if err := files.Delete(c.UserContext(), principal, id, req.BucketFileID, req.Path); err != nil {
			return writeFileError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadFile returns a time-limited URL for the file's bytes.
func DownloadFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid file id")
		}

		url, err := files.DownloadURL(c.UserContext(), principal, id)
		if err != nil {
			return writeFileError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"url": url})
	}
}

// StorageSummary reports the authenticated user's per-category usage.
func StorageSummary(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := middleware.Principal(c)

		summary, err := files.TotalSpace(c.UserContext(), principal)
		if err != nil {
			return writeFileError(c, err)
		}
		return c.Status(fiber.StatusOK).JSON(summary)
	}
}

func writeFileError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrIDRequired), errors.Is(err, service.ErrNameRequired), errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", err.Error())
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "not the file owner")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
