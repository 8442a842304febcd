package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/slotcast/internal/service"
)

func GetUserID(c *fiber.Ctx) int64 {
	raw, _ := c.Locals("user_id").(string)
	userID, _ := strconv.ParseInt(raw, 10, 64)
	return userID
}

var statusByCode = map[service.Code]int{
	service.CodeUnauthenticated:    fiber.StatusUnauthorized,
	service.CodeInvalidArgument:    fiber.StatusBadRequest,
	service.CodeNotFound:           fiber.StatusNotFound,
	service.CodePermissionDenied:   fiber.StatusForbidden,
	service.CodeFailedPrecondition: fiber.StatusConflict,
	service.CodeResourceExhausted:  fiber.StatusConflict,
	service.CodeInternal:           fiber.StatusInternalServerError,
}

// writeError maps a service error to its HTTP status and a
// {"error", "code"} body.
func writeError(c *fiber.Ctx, err error) error {
	code := service.CodeInternal
	msg := "internal error"

	var se *service.Error
	if errors.As(err, &se) {
		code = se.Code
		msg = se.Error()
	}

	status, ok := statusByCode[code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "path", c.Path(), "request_id", c.Locals("request_id"), "error", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"code":  code,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
		"code":  service.CodeInvalidArgument,
	})
}

func readFiles(headers []*multipart.FileHeader) ([]service.FileUpload, error) {
	files := make([]service.FileUpload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		files = append(files, service.FileUpload{Name: fh.Filename, Data: data})
	}
	return files, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
