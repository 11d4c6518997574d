package router

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/handler"
)

// SetupDevRouter registers development-only routes. A nil handler registers nothing.
func SetupDevRouter(e *echo.Echo, devTokenHandler *handler.DevTokenHandler) {
	if devTokenHandler == nil {
		return
	}

	e.GET("/_dev/token", devTokenHandler.GenerateToken)
	e.POST("/_dev/token", devTokenHandler.GenerateToken)
}
