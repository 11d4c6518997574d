package repository

import (
	"context"

	"hajzi/internal/domain/entity"
)

type ChatRepository interface {
	// CreateIfAbsent stores chat under chat.ID unless a document already
	// exists there; it returns the stored chat and whether it was created.
	CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByParticipant(ctx context.Context, email string) ([]*entity.Chat, error)

	// AppendMessage assigns the next sequence number, stores the message and
	// updates the chat's message list and last-message fields atomically.
	AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, error)
	GetMessageByID(ctx context.Context, id string) (*entity.Message, error)
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)
	RedactMessage(ctx context.Context, id string) (*entity.Message, error)
	// MarkRead flags every message in the chat addressed to reader as read
	// and returns the ids that changed.
	MarkRead(ctx context.Context, chatID, reader string) ([]string, error)
}
