package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
)

// memoryChatRepository keeps chats and messages in process memory. A single
// mutex makes every method atomic, matching the guarantees of the Firestore
// transactions in firestoreChatRepository.
type memoryChatRepository struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string]*entity.Message
}

func NewMemoryChatRepository() repository.ChatRepository {
	return &memoryChatRepository{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string]*entity.Message),
	}
}

func (r *memoryChatRepository) CreateIfAbsent(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.chats[chat.ID]; ok {
		return cloneChat(existing), false, nil
	}

	now := time.Now()
	stored := cloneChat(chat)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if stored.Messages == nil {
		stored.Messages = []string{}
	}
	r.chats[stored.ID] = stored

	return cloneChat(stored), true, nil
}

func (r *memoryChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return cloneChat(chat), nil
}

func (r *memoryChatRepository) ListByParticipant(ctx context.Context, email string) ([]*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var chats []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasParticipant(email) {
			chats = append(chats, cloneChat(chat))
		}
	}
	sortChatsByActivity(chats)
	return chats, nil
}

func (r *memoryChatRepository) AppendMessage(ctx context.Context, message *entity.Message) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[message.ChatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}

	stored := cloneMessage(message)
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}
	if stored.ReadBy == nil {
		stored.ReadBy = []string{}
	}
	stored.Seq = chat.MessageCount + 1
	r.messages[stored.ID] = stored

	summary := stored.Summary()
	sentAt := stored.Timestamp
	chat.MessageCount = stored.Seq
	chat.Messages = append(chat.Messages, stored.ID)
	chat.LastMessage = &summary
	chat.LastMessageTime = &sentAt
	chat.UpdatedAt = time.Now()

	return cloneMessage(stored), nil
}

func (r *memoryChatRepository) GetMessageByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	return cloneMessage(message), nil
}

func (r *memoryChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var messages []*entity.Message
	for _, message := range r.messages {
		if message.ChatID == chatID {
			messages = append(messages, cloneMessage(message))
		}
	}
	sortMessagesBySeq(messages)
	return messages, nil
}

func (r *memoryChatRepository) RedactMessage(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	message, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	message.Content = ""
	message.MediaURL = ""
	message.Redacted = true

	if chat, ok := r.chats[message.ChatID]; ok && chat.MessageCount == message.Seq {
		summary := message.Summary()
		chat.LastMessage = &summary
		chat.UpdatedAt = time.Now()
	}

	return cloneMessage(message), nil
}

func (r *memoryChatRepository) MarkRead(ctx context.Context, chatID, reader string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[chatID]; !ok {
		return nil, errors.NotFound("Chat", nil)
	}

	var changed []string
	for _, message := range r.messages {
		if message.ChatID != chatID || message.ReceiverEmail != reader || message.IsRead {
			continue
		}
		message.IsRead = true
		message.ReadBy = appendUnique(message.ReadBy, reader)
		changed = append(changed, message.ID)
	}
	sort.Strings(changed)
	return changed, nil
}

func cloneChat(chat *entity.Chat) *entity.Chat {
	c := *chat
	c.Users = append([]entity.Participant(nil), chat.Users...)
	c.ParticipantIDs = append([]string(nil), chat.ParticipantIDs...)
	c.Messages = append([]string{}, chat.Messages...)
	if chat.LastMessage != nil {
		s := *chat.LastMessage
		c.LastMessage = &s
	}
	if chat.LastMessageTime != nil {
		t := *chat.LastMessageTime
		c.LastMessageTime = &t
	}
	return &c
}

func cloneMessage(message *entity.Message) *entity.Message {
	m := *message
	m.ReadBy = append([]string{}, message.ReadBy...)
	return &m
}
