package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"

	"github.com/gartstein/vcpms/internal/portfolio/controller"
	e "github.com/gartstein/vcpms/internal/portfolio/errors"
	"github.com/gartstein/vcpms/internal/portfolio/listing"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// formResponse is the body of a form page: the bound input and its errors.
type formResponse struct {
	Form    any               `json:"form"`
	Errors  map[string]string `json:"errors"`
	Choices any               `json:"choices,omitempty"`
}

// paramID reads a positive integer route parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, e.ErrNotFound)
	}
	return uint(n), nil
}

// pageQuery reads a page number from the query string, defaulting to 1.
func pageQuery(c *fiber.Ctx, key string) int {
	return listing.ParsePage(c.Query(key))
}

// bind decodes the request body into dst using its json or form tags.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return e.FieldError(e.NonFieldKey, "The submitted form could not be read.")
	}
	return nil
}

// upload turns a multipart file header into a controller upload. The
// returned close func must be called once the upload has been consumed.
func upload(fh *multipart.FileHeader) (controller.Upload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return controller.Upload{}, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return controller.Upload{Name: fh.Filename, Size: fh.Size, Content: f}, func() { _ = f.Close() }, nil
}

// optionalFile returns the named multipart file, or nil when none was sent.
func optionalFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return fh
}

func redirect(c *fiber.Ctx, to string) error {
	return c.Redirect(to, fiber.StatusFound)
}

// renderForm answers a submitted form. Validation errors re-render the form
// with 200 and the errors attached; anything else goes through
// mapServiceError.
func (h *Handler) renderForm(c *fiber.Ctx, form any, err error, fallback string) error {
	if v, ok := e.AsValidation(err); ok {
		return c.Status(fiber.StatusOK).JSON(formResponse{Form: form, Errors: v.Fields})
	}
	return h.mapServiceError(c, err, fallback)
}

// showForm renders an unsubmitted form with its choices.
func showForm(c *fiber.Ctx, form any, choices any) error {
	return c.JSON(formResponse{Form: form, Errors: map[string]string{}, Choices: choices})
}

// mapServiceError maps domain errors to redirects and status codes. A
// missing record sends the client to fallback when one is given.
func (h *Handler) mapServiceError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		if fallback != "" {
			return redirect(c, fallback)
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, e.ErrUnauthorized):
		return redirect(c, loginPath)
	case errors.Is(err, e.ErrForbidden):
		if fallback != "" {
			return redirect(c, fallback)
		}
		return redirect(c, dashboardPath)
	case errors.Is(err, e.ErrInvalidInput):
		if v, ok := e.AsValidation(err); ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": v.Fields})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, e.ErrDuplicate), errors.Is(err, e.ErrConflict), errors.Is(err, e.ErrConstraintViolation):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		h.logger.Error("Internal server error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
