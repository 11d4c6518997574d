package router

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers /ws. Authentication happens inside the
// handler because browsers cannot send headers on the upgrade request.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/ws", wsHandler.HandleWebSocket)
}
