package websocket

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
)

// Inbound events.
const (
	EventPing        = "ping"
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
)

// Outbound events produced by the transport itself.
const (
	EventPong   = "pong"
	EventJoined = "joined_chat"
	EventLeft   = "left_chat"
	EventError  = "error"
)

// Frame is the envelope for every message in both directions.
type Frame struct {
	Event     string          `json:"event"`
	ChatID    string          `json:"chatId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type SendMessageData struct {
	ChatID        string `json:"chatId"`
	ReceiverEmail string `json:"receiverEmail"`
	Content       string `json:"content"`
	MediaURL      string `json:"mediaUrl"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InboundHandler carries application logic for client frames. Errors are
// reported back to the sending client as error frames.
type InboundHandler interface {
	AuthorizeJoin(ctx context.Context, identity, chatID string) error
	SendMessage(ctx context.Context, identity string, data SendMessageData) error
}

func EncodeFrame(event, chatID string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}

	return json.Marshal(Frame{
		Event:     event,
		ChatID:    chatID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// HandleClientMessage processes one inbound frame from client.
func (m *Manager) HandleClientMessage(ctx context.Context, client *Client, raw []byte) {
	if !client.limiter.Allow() {
		m.sendError(client, "", errors.TooManyRequests("You are sending messages too quickly"))
		return
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Debug("WebSocket: malformed frame from %s: %v", client.Identity, err)
		m.sendError(client, "", errors.Validation("Invalid message format", err))
		return
	}

	switch frame.Event {
	case EventPing:
		m.reply(client, EventPong, "", nil)

	case EventJoinChat:
		m.handleJoinChat(ctx, client, frame)

	case EventLeaveChat:
		m.Leave(client, frame.ChatID)
		m.reply(client, EventLeft, frame.ChatID, nil)

	case EventSendMessage:
		m.handleSendMessage(ctx, client, frame)

	default:
		m.sendError(client, frame.ChatID, errors.Validation("Unknown event "+frame.Event, nil))
	}
}

func (m *Manager) handleJoinChat(ctx context.Context, client *Client, frame Frame) {
	if frame.ChatID == "" {
		m.sendError(client, "", errors.Validation("chatId is required", nil))
		return
	}

	handler := m.inboundHandler()
	if handler == nil {
		m.sendError(client, frame.ChatID, errors.Internal("Chat handling is not available", nil))
		return
	}
	if err := handler.AuthorizeJoin(ctx, client.Identity, frame.ChatID); err != nil {
		m.sendError(client, frame.ChatID, err)
		return
	}

	m.Join(client, frame.ChatID)
	m.reply(client, EventJoined, frame.ChatID, nil)
}

func (m *Manager) handleSendMessage(ctx context.Context, client *Client, frame Frame) {
	var data SendMessageData
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &data); err != nil {
			m.sendError(client, frame.ChatID, errors.Validation("Invalid send_message payload", err))
			return
		}
	}
	if data.ChatID == "" {
		data.ChatID = frame.ChatID
	}

	handler := m.inboundHandler()
	if handler == nil {
		m.sendError(client, data.ChatID, errors.Internal("Chat handling is not available", nil))
		return
	}

	// The stored message reaches the room, sender included, as receive_message.
	if err := handler.SendMessage(ctx, client.Identity, data); err != nil {
		m.sendError(client, data.ChatID, err)
	}
}

func (m *Manager) reply(client *Client, event, chatID string, payload interface{}) {
	frame, err := EncodeFrame(event, chatID, payload)
	if err != nil {
		logger.Error("WebSocket: encoding %s frame: %v", event, err)
		return
	}
	client.enqueue(frame)
}

func (m *Manager) sendError(client *Client, chatID string, err error) {
	data := ErrorData{Code: errors.CodeInternal, Message: "An unexpected error occurred"}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		data = ErrorData{Code: appErr.Code, Message: appErr.Message}
	} else {
		logger.Error("WebSocket: unexpected error for %s: %v", client.Identity, err)
	}

	m.reply(client, EventError, chatID, data)
}
