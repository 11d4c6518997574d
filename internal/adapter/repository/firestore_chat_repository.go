package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func (r *firestoreChatRepository) messages() *firestore.CollectionRef {
	return r.client.Collection(messagesCollection)
}

// CreateIfAbsent relies on Create failing with AlreadyExists, so concurrent
// callers for the same pair converge on one document.
func (r *firestoreChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if chat.Messages == nil {
		chat.Messages = []string{}
	}

	_, err := r.chats().Doc(chat.ID).Create(ctx, chat)
	if err == nil {
		return chat, true, nil
	}
	if !isAlreadyExists(err) {
		return nil, false, errors.Dependency("Failed to create chat", err)
	}

	existing, err := r.GetByID(ctx, chat.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Chat", err)
		}
		return nil, errors.Dependency("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}
	chat.ID = doc.Ref.ID

	return &chat, nil
}

func (r *firestoreChatRepository) ListByParticipant(ctx context.Context, email string) ([]*entity.Chat, error) {
	docs, err := r.chats().Where("participantIds", "array-contains", email).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching chats for %s: %v", email, err)
		return nil, errors.Dependency("Failed to fetch chats", err)
	}

	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}

	// Sorted in memory to avoid a composite index on participantIds+lastMessageTime.
	sortChatsByActivity(chats)
	return chats, nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}

	chatRef := r.chats().Doc(message.ChatID)
	msgRef := r.messages().Doc(message.ID)

	var stored entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Chat", err)
			}
			return err
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}

		stored = *message
		stored.Seq = chat.MessageCount + 1
		stored.Timestamp = time.Now()

		if err := tx.Create(msgRef, stored); err != nil {
			return err
		}

		return tx.Update(chatRef, []firestore.Update{
			{Path: "messageCount", Value: stored.Seq},
			{Path: "messages", Value: firestore.ArrayUnion(stored.ID)},
			{Path: "lastMessage", Value: stored.Summary()},
			{Path: "lastMessageTime", Value: stored.Timestamp},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		return nil, storeError("Failed to store message", err)
	}

	return &stored, nil
}

func (r *firestoreChatRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	doc, err := r.messages().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Message", err)
		}
		return nil, errors.Dependency("Failed to get message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}
	return &message, nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	docs, err := r.messages().Where("chatId", "==", chatID).Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing messages for chat %s: %v", chatID, err)
		return nil, errors.Dependency("Failed to list messages", err)
	}

	messages := make([]*entity.Message, 0, len(docs))
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	sortMessagesBySeq(messages)
	return messages, nil
}

// RedactMessage clears the message and, when it is the chat's latest, the
// chat summary, in one transaction.
func (r *firestoreChatRepository) RedactMessage(ctx context.Context, id string) (*entity.Message, error) {
	msgRef := r.messages().Doc(id)

	var redacted entity.Message
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		msgDoc, err := tx.Get(msgRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Message", err)
			}
			return err
		}
		if err := msgDoc.DataTo(&redacted); err != nil {
			return errors.Internal("Failed to parse message data", err)
		}

		chatRef := r.chats().Doc(redacted.ChatID)
		chatDoc, err := tx.Get(chatRef)
		if err != nil && !isNotFound(err) {
			return err
		}

		redacted.Content = ""
		redacted.MediaURL = ""
		redacted.Redacted = true

		if err := tx.Update(msgRef, []firestore.Update{
			{Path: "content", Value: ""},
			{Path: "mediaUrl", Value: firestore.Delete},
			{Path: "redacted", Value: true},
		}); err != nil {
			return err
		}

		if chatDoc == nil || !chatDoc.Exists() {
			return nil
		}
		var chat entity.Chat
		if err := chatDoc.DataTo(&chat); err != nil {
			return errors.Internal("Failed to parse chat data", err)
		}
		if chat.MessageCount != redacted.Seq {
			return nil
		}
		return tx.Update(chatRef, []firestore.Update{
			{Path: "lastMessage", Value: redacted.Summary()},
			{Path: "updatedAt", Value: time.Now()},
		})
	})
	if err != nil {
		return nil, storeError("Failed to redact message", err)
	}

	return &redacted, nil
}

func (r *firestoreChatRepository) MarkRead(ctx context.Context, chatID, reader string) ([]string, error) {
	query := r.messages().
		Where("chatId", "==", chatID).
		Where("receiverEmail", "==", reader).
		Where("isRead", "==", false)

	var changed []string
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		changed = changed[:0]

		docs, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}

		for _, doc := range docs {
			if err := tx.Update(doc.Ref, []firestore.Update{
				{Path: "isRead", Value: true},
				{Path: "readBy", Value: firestore.ArrayUnion(reader)},
			}); err != nil {
				return err
			}
			changed = append(changed, doc.Ref.ID)
		}
		return nil
	})
	if err != nil {
		return nil, storeError("Failed to mark messages as read", err)
	}

	return changed, nil
}
