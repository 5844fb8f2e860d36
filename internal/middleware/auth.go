package middleware

import (
	"strings"

	"github.com/collabserve/collabserve/internal/config"
	"github.com/collabserve/collabserve/internal/services"
	"github.com/collabserve/collabserve/internal/types"
	"github.com/gofiber/fiber/v2"
)

// AuthUser validates the Bearer token on a request and stores the verified
// user id in request locals. Handlers read it once and pass it explicitly
// into every service call; nothing below the handler layer touches locals.
func AuthUser(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := BearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Access token is missing",
				Type:    "auth.token.missing",
			}
		}

		userID, err := services.ValidateToken(cfg, raw)
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Invalid token",
				Type:    "auth.token.invalid",
			}
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer x" value.
// Returns "" when the header is absent or malformed.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
