package server

import (
	"log/slog"

	"peopleconnects/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler upgrades GET /api/ws and streams the caller's
// notifications. Authentication runs in route middleware.
// @Summary Live notifications
// @Tags realtime
// @Param ticket query string true "Ticket from POST /ws/ticket"
// @Success 101
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		username, ok := conn.Locals(localUsername).(string)
		if !ok || username == "" || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(username, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration refused",
				slog.String("username", username), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		if s.hub == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Live notifications are unavailable",
			})
		}
		return upgrade(c)
	}
}
