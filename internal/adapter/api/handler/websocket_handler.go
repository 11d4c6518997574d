package handler

import (
	"context"
	"net/http"
	"strings"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/middleware"
	ws "hajzi/internal/infrastructure/websocket"
	"hajzi/internal/usecase"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
	"hajzi/pkg/response"
)

type WebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	chatUseCase    *usecase.ChatUseCase
	upgrader       gorillaws.Upgrader
}

// NewWebSocketHandler also installs itself as the manager's inbound handler.
func NewWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware, chatUseCase *usecase.ChatUseCase, allowedOrigins []string) *WebSocketHandler {
	h := &WebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		chatUseCase:    chatUseCase,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
	wsManager.SetHandler(h)
	return h
}

// HandleWebSocket authenticates with the "token" query parameter (browsers
// cannot set headers on upgrade) or a bearer header, then serves the
// connection until it closes.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token = strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	}

	identity, err := h.authMiddleware.Identify(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed for %s: %v", identity, err)
		return nil
	}

	client := h.wsManager.Attach(conn, identity)
	go client.WritePump()
	client.ReadPump(c.Request().Context(), h.wsManager)

	return nil
}

func (h *WebSocketHandler) AuthorizeJoin(ctx context.Context, identity, chatID string) error {
	return h.chatUseCase.AuthorizeParticipant(ctx, chatID, identity)
}

func (h *WebSocketHandler) SendMessage(ctx context.Context, identity string, data ws.SendMessageData) error {
	if data.ChatID == "" {
		return errors.Validation("chatId is required", nil)
	}

	_, err := h.chatUseCase.SendMessage(ctx, usecase.SendMessageInput{
		ChatID:   data.ChatID,
		Sender:   identity,
		Receiver: data.ReceiverEmail,
		Content:  data.Content,
		MediaURL: data.MediaURL,
	})
	return err
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}

	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
