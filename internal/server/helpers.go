package server

import (
	"io"
	"strconv"
	"strings"

	"peopleconnects/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parsePage reads the 0-based page query parameter. Anything that is not an
// integer is a validation error; the engine rejects negative pages.
func parsePage(c *fiber.Ctx) (int, error) {
	raw := strings.TrimSpace(c.Query("page"))
	if raw == "" {
		return 0, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError("page must be an integer")
	}
	return page, nil
}

// readUpload returns the bytes of the multipart file field, or nil when the
// request has no such field.
func readUpload(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("Unreadable upload")
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewValidationError("Unreadable upload")
	}
	return data, nil
}
