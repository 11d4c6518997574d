package router

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/handler"
	"hajzi/internal/adapter/api/middleware"
)

type Handlers struct {
	Chat      *handler.ChatHandler
	Slot      *handler.SlotHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
	DevToken  *handler.DevTokenHandler // nil outside development
}

// Setup registers every route. rateLimit runs after authentication so that
// limits are keyed by identity where one exists.
func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	SetupHealthRouter(e, h.Health)
	SetupChatRouter(e, h.Chat, authMiddleware, rateLimit)
	SetupSlotRouter(e, h.Slot, authMiddleware, rateLimit)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupDevRouter(e, h.DevToken)
}
