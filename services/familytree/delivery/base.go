package delivery

import (
	"errors"
	"strings"

	"familytree/config"
	"familytree/domain"

	"github.com/gofiber/fiber/v2"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAncestorCycle),
		errors.Is(err, domain.ErrInvalidPhrase),
		errors.Is(err, domain.ErrUnsupportedFile):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the error envelope for err and logs the request outcome.
func fail(c *fiber.Ctx, username *string, fn, message string, err error) error {
	status := statusFor(err)
	config.PrintLogInfo(username, status, fn)
	return c.Status(status).JSON(domain.Response{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}

func claimsOf(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals("user").(*domain.Claims)
	return claims
}

func formValue(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.FormValue(key))
}
