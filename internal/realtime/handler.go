package realtime

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/collabserve/collabserve/internal/config"
	"github.com/collabserve/collabserve/internal/middleware"
	"github.com/collabserve/collabserve/internal/services"
	"github.com/collabserve/collabserve/internal/types"
)

// RegisterRoutes mounts the realtime websocket endpoint. The token is
// accepted either as a ?token= query parameter, which is what browser
// websocket clients can actually send, or as a normal bearer header.
func RegisterRoutes(app *fiber.App, cfg *config.Config, hub *Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			token = middleware.BearerToken(c.Get(fiber.HeaderAuthorization))
		}
		if token == "" {
			return &types.CustomError{
				Code:    fiber.StatusUnauthorized,
				Message: "Access token is missing",
				Type:    "auth.token.missing",
			}
		}

		userID, err := services.ValidateToken(cfg, token)
		if err != nil {
			return &types.CustomError{
				Code:    fiber.StatusForbidden,
				Message: "Invalid token",
				Type:    "auth.token.invalid",
			}
		}

		c.Locals("userID", userID)
		return c.Next()
	})

	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		client := NewClient(hub, conn, userID)
		go client.writePump()
		client.readPump()
	}))
}
