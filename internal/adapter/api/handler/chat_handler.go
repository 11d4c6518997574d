package handler

import (
	"fmt"
	"io"

	"github.com/labstack/echo/v4"

	"hajzi/internal/adapter/api/middleware"
	"hajzi/internal/usecase"
	"hajzi/pkg/errors"
	"hajzi/pkg/response"
	"hajzi/pkg/utils"
)

type ChatHandler struct {
	chatUseCase    *usecase.ChatUseCase
	maxUploadBytes int64
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase, maxUploadBytes int64) *ChatHandler {
	return &ChatHandler{
		chatUseCase:    chatUseCase,
		maxUploadBytes: maxUploadBytes,
	}
}

type createChatRequest struct {
	OwnerEmail string `json:"ownerEmail" validate:"required,email"`
}

type sendMessageRequest struct {
	ReceiverEmail string `json:"receiverEmail" validate:"required,email"`
	Content       string `json:"content"`
	MediaURL      string `json:"mediaUrl"`
}

// CreateChat returns the chat with the given owner, creating it on first contact.
func (h *ChatHandler) CreateChat(c echo.Context) error {
	var req createChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	chat, created, err := h.chatUseCase.EnsureChat(c.Request().Context(), usecase.EnsureChatInput{
		Requester: middleware.Identity(c),
		Owner:     req.OwnerEmail,
	})
	if err != nil {
		return response.Error(c, err)
	}

	if created {
		return response.Created(c, chat)
	}
	return response.Success(c, chat)
}

// GetUserChats lists the caller's chats. Pagination applies only when page or
// limit is given.
func (h *ChatHandler) GetUserChats(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	limit, offset := 0, 0
	if params.Requested {
		limit, offset = params.PageSize, params.Offset
	}

	chats, total, err := h.chatUseCase.ListChatsFor(c.Request().Context(), middleware.Identity(c), limit, offset)
	if err != nil {
		return response.Error(c, err)
	}

	if params.Requested {
		return response.Paginated(c, chats, total, params.Page, params.PageSize)
	}
	return response.Success(c, chats)
}

func (h *ChatHandler) GetChatByID(c echo.Context) error {
	chat, err := h.chatUseCase.GetChat(c.Request().Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, chat)
}

func (h *ChatHandler) GetChatMessages(c echo.Context) error {
	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, messages)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.Validation("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.chatUseCase.SendMessage(c.Request().Context(), usecase.SendMessageInput{
		ChatID:   c.Param("id"),
		Sender:   middleware.Identity(c),
		Receiver: req.ReceiverEmail,
		Content:  req.Content,
		MediaURL: req.MediaURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SendMedia accepts a multipart upload with an "image" file and a
// "receiverEmail" field.
func (h *ChatHandler) SendMedia(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.Validation("image is required", err))
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return response.Error(c, errors.Validation(fmt.Sprintf("image must be at most %d bytes", h.maxUploadBytes), nil))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Validation("Failed to read image", err))
	}
	defer file.Close()

	var reader io.Reader = file
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return response.Error(c, errors.Validation("Failed to read image", err))
	}

	message, err := h.chatUseCase.SendMedia(c.Request().Context(), usecase.SendMediaInput{
		ChatID:   c.Param("id"),
		Sender:   middleware.Identity(c),
		Receiver: c.FormValue("receiverEmail"),
		Data:     data,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

func (h *ChatHandler) MarkChatAsRead(c echo.Context) error {
	ids, err := h.chatUseCase.MarkChatRead(c.Request().Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"chatId":     c.Param("id"),
		"messageIds": ids,
	})
}

// RedactMessage handles DELETE /v1/messages/:id. The message stays in the
// log with its content cleared.
func (h *ChatHandler) RedactMessage(c echo.Context) error {
	message, err := h.chatUseCase.RedactMessage(c.Request().Context(), c.Param("id"), middleware.Identity(c))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, message)
}
