package router

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/handler"
	"hajzi/internal/adapter/api/middleware"
)

func SetupSlotRouter(e *echo.Echo, slotHandler *handler.SlotHandler, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	// Listing is public.
	e.GET("/v1/slots/:resourceId", slotHandler.ListSlots, rateLimit)

	slotGroup := e.Group("/v1/slots")
	slotGroup.Use(authMiddleware.Authenticate, rateLimit)

	slotGroup.POST("", slotHandler.CreateSlot)
	slotGroup.POST("/book", slotHandler.BookSlot)
	slotGroup.PATCH("/release", slotHandler.ReleaseSlot)
	slotGroup.PATCH("/reschedule", slotHandler.RescheduleSlot)
	slotGroup.DELETE("/:resourceId", slotHandler.DeleteSlots)
}
