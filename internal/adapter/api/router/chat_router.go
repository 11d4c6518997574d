package router

import (
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/handler"
	"hajzi/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, rateLimit echo.MiddlewareFunc) {
	chatGroup := e.Group("/v1/chats")
	chatGroup.Use(authMiddleware.Authenticate, rateLimit)

	chatGroup.POST("", chatHandler.CreateChat)
	chatGroup.GET("", chatHandler.GetUserChats)
	chatGroup.GET("/:id", chatHandler.GetChatByID)
	chatGroup.PUT("/:id/read", chatHandler.MarkChatAsRead)

	chatGroup.POST("/:id/messages", chatHandler.SendMessage)
	chatGroup.GET("/:id/messages", chatHandler.GetChatMessages)
	chatGroup.POST("/:id/media", chatHandler.SendMedia)

	messageGroup := e.Group("/v1/messages")
	messageGroup.Use(authMiddleware.Authenticate, rateLimit)
	messageGroup.DELETE("/:id", chatHandler.RedactMessage)
}
