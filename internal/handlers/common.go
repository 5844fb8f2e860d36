package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// getUserID extracts the verified user id placed in locals by the auth
// middleware. A miss here means a route was registered without the
// middleware, which is a wiring bug; handlers answer it with a generic
// authorization message, never this diagnostic.
func getUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals("userID").(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("no verified user id in request locals")
	}
	return userID, nil
}

// parseIDParam parses a numeric path parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint64, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}
