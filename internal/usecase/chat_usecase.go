package usecase

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/internal/domain/service"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
	"hajzi/pkg/validation"
)

const chatMediaFolder = "chat-media"

type ChatUseCase struct {
	chatRepo       repository.ChatRepository
	directory      service.IdentityDirectory
	publisher      service.RealtimePublisher
	files          service.FileUploadService
	validate       *validator.Validate
	rooms          *roomLocks
	maxUploadBytes int64
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	directory service.IdentityDirectory,
	publisher service.RealtimePublisher,
	files service.FileUploadService,
	maxUploadBytes int64,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:       chatRepo,
		directory:      directory,
		publisher:      publisher,
		files:          files,
		validate:       validation.New(),
		rooms:          newRoomLocks(),
		maxUploadBytes: maxUploadBytes,
	}
}

type EnsureChatInput struct {
	Requester string `json:"requesterEmail" validate:"required,email"`
	Owner     string `json:"ownerEmail" validate:"required,email,nefield=Requester"`
}

type SendMessageInput struct {
	ChatID   string `json:"chatId" validate:"required"`
	Sender   string `json:"senderEmail" validate:"required,email"`
	Receiver string `json:"receiverEmail" validate:"required,email"`
	Content  string `json:"content" validate:"required_without=MediaURL,max=4000"`
	MediaURL string `json:"mediaUrl" validate:"omitempty,url"`
}

type SendMediaInput struct {
	ChatID   string `json:"chatId" validate:"required"`
	Sender   string `json:"senderEmail" validate:"required,email"`
	Receiver string `json:"receiverEmail" validate:"required,email"`
	Data     []byte `json:"image" validate:"required,min=1"`
}

// MessageResponse is a message enriched with the sender's current display name.
type MessageResponse struct {
	*entity.Message
	SenderUsername string `json:"senderUsername"`
}

// ReadReceipt is the payload of a messages_read event.
type ReadReceipt struct {
	ChatID     string   `json:"chatId"`
	Reader     string   `json:"readerEmail"`
	MessageIDs []string `json:"messageIds"`
}

// EnsureChat returns the chat between requester and owner, creating it on
// first contact. The boolean reports whether this call created it.
func (uc *ChatUseCase) EnsureChat(ctx context.Context, input EnsureChatInput) (*entity.Chat, bool, error) {
	input.Requester = entity.NormalizeIdentity(input.Requester)
	input.Owner = entity.NormalizeIdentity(input.Owner)
	if err := validation.Check(uc.validate, input); err != nil {
		return nil, false, err
	}

	names, err := uc.directory.ResolveDisplayNames(ctx, []string{input.Requester, input.Owner})
	if err != nil {
		logger.Error("EnsureChat Error: resolving %s and %s: %v", input.Requester, input.Owner, err)
		return nil, false, err
	}

	chat := &entity.Chat{
		ID: entity.ChatIDFor(input.Requester, input.Owner),
		Users: []entity.Participant{
			{Email: input.Requester, Username: names[input.Requester]},
			{Email: input.Owner, Username: names[input.Owner]},
		},
		ParticipantIDs: []string{input.Requester, input.Owner},
		Owner:          input.Owner,
		Messages:       []string{},
	}

	stored, created, err := uc.chatRepo.CreateIfAbsent(ctx, chat)
	if err != nil {
		logger.Error("EnsureChat Error: storing chat %s: %v", chat.ID, err)
		return nil, false, err
	}

	if created {
		logger.Info("Chat %s created between %s and %s", stored.ID, input.Requester, input.Owner)
	} else {
		applyDisplayNames(stored, names)
	}

	return stored, created, nil
}

// ListChatsFor returns the identity's chats, most recently active first. A
// non-positive limit returns every chat. The total is always the full count.
func (uc *ChatUseCase) ListChatsFor(ctx context.Context, identity string, limit, offset int) ([]*entity.Chat, int64, error) {
	identity = entity.NormalizeIdentity(identity)
	if identity == "" {
		return nil, 0, errors.Validation("identity is required", nil)
	}

	chats, err := uc.chatRepo.ListByParticipant(ctx, identity)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(chats))

	if limit > 0 {
		if offset >= len(chats) {
			chats = []*entity.Chat{}
		} else {
			end := offset + limit
			if end > len(chats) {
				end = len(chats)
			}
			chats = chats[offset:end]
		}
	}

	if err := uc.refreshDisplayNames(ctx, chats...); err != nil {
		return nil, 0, err
	}

	return chats, total, nil
}

func (uc *ChatUseCase) GetChat(ctx context.Context, chatID, identity string) (*entity.Chat, error) {
	chat, err := uc.participantChat(ctx, chatID, identity)
	if err != nil {
		return nil, err
	}

	if err := uc.refreshDisplayNames(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// AuthorizeParticipant fails unless identity takes part in the chat.
func (uc *ChatUseCase) AuthorizeParticipant(ctx context.Context, chatID, identity string) error {
	_, err := uc.participantChat(ctx, chatID, identity)
	return err
}

// SendMessage persists a message and publishes receive_message to the chat
// room. The publish outcome never changes the result.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*MessageResponse, error) {
	input.Sender = entity.NormalizeIdentity(input.Sender)
	input.Receiver = entity.NormalizeIdentity(input.Receiver)
	if strings.TrimSpace(input.Content) == "" {
		input.Content = ""
	}
	if err := validation.Check(uc.validate, input); err != nil {
		return nil, err
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		logger.Error("SendMessage Error: Chat %s not found: %v", input.ChatID, err)
		return nil, err
	}
	if err := checkParticipants(chat, input.Sender, input.Receiver); err != nil {
		logger.Warn("SendMessage rejected for chat %s: %v", chat.ID, err)
		return nil, err
	}

	return uc.appendAndPublish(ctx, &entity.Message{
		ChatID:        chat.ID,
		SenderEmail:   input.Sender,
		ReceiverEmail: input.Receiver,
		Content:       input.Content,
		MediaURL:      input.MediaURL,
		ReadBy:        []string{},
	})
}

// SendMedia uploads an image to the blob store and sends it as a media message.
func (uc *ChatUseCase) SendMedia(ctx context.Context, input SendMediaInput) (*MessageResponse, error) {
	input.Sender = entity.NormalizeIdentity(input.Sender)
	input.Receiver = entity.NormalizeIdentity(input.Receiver)
	if err := validation.Check(uc.validate, input); err != nil {
		return nil, err
	}
	if uc.maxUploadBytes > 0 && int64(len(input.Data)) > uc.maxUploadBytes {
		return nil, errors.Validation(fmt.Sprintf("image must be at most %d bytes", uc.maxUploadBytes), nil)
	}

	mtype := mimetype.Detect(input.Data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, errors.Validation("Only image uploads are allowed", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}
	if err := checkParticipants(chat, input.Sender, input.Receiver); err != nil {
		return nil, err
	}

	if uc.files == nil {
		return nil, errors.Dependency("Media storage is not configured", nil)
	}

	url, err := uc.files.UploadFile(ctx, bytes.NewReader(input.Data), mtype.String(), chatMediaFolder+"/"+chat.ID, true)
	if err != nil {
		logger.Error("SendMedia Error: upload for chat %s failed: %v", chat.ID, err)
		return nil, errors.Dependency("Failed to upload media", err)
	}

	return uc.appendAndPublish(ctx, &entity.Message{
		ChatID:        chat.ID,
		SenderEmail:   input.Sender,
		ReceiverEmail: input.Receiver,
		MediaURL:      url,
		ReadBy:        []string{},
	})
}

// ListMessages returns the chat's messages in durable-log order.
func (uc *ChatUseCase) ListMessages(ctx context.Context, chatID, requester string) ([]*MessageResponse, error) {
	if _, err := uc.participantChat(ctx, chatID, requester); err != nil {
		return nil, err
	}

	messages, err := uc.chatRepo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}

	senders := make([]string, 0, len(messages))
	for _, m := range messages {
		senders = append(senders, m.SenderEmail)
	}
	names, err := uc.directory.ResolveDisplayNames(ctx, senders)
	if err != nil {
		return nil, err
	}

	responses := make([]*MessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, &MessageResponse{Message: m, SenderUsername: names[m.SenderEmail]})
	}
	return responses, nil
}

// RedactMessage clears a message's content and media. Only the sender may
// redact; the room receives update_message with the cleared message. Uploaded
// media is removed from the blob store once the redaction is stored.
func (uc *ChatUseCase) RedactMessage(ctx context.Context, messageID, requester string) (*MessageResponse, error) {
	requester = entity.NormalizeIdentity(requester)
	if messageID == "" || requester == "" {
		return nil, errors.Validation("messageId and requester are required", nil)
	}

	message, err := uc.chatRepo.GetMessageByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.SenderEmail != requester {
		logger.Warn("RedactMessage rejected: %s is not the sender of %s", requester, messageID)
		return nil, errors.Forbidden("Only the sender can delete this message", nil)
	}

	names, err := uc.directory.ResolveDisplayNames(ctx, []string{requester})
	if err != nil {
		return nil, err
	}

	response, err := uc.redactAndPublish(ctx, message.ChatID, messageID, names[requester])
	if err != nil {
		return nil, err
	}
	uc.deleteMedia(ctx, message.MediaURL)

	return response, nil
}

func (uc *ChatUseCase) redactAndPublish(ctx context.Context, chatID, messageID, senderName string) (*MessageResponse, error) {
	unlock := uc.rooms.lock(chatID)
	defer unlock()

	redacted, err := uc.chatRepo.RedactMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	response := &MessageResponse{Message: redacted, SenderUsername: senderName}
	uc.publish(ctx, chatID, service.EventUpdateMessage, response)
	return response, nil
}

// deleteMedia removes a redacted message's upload. Failures leave an orphaned
// object and are only logged.
func (uc *ChatUseCase) deleteMedia(ctx context.Context, mediaURL string) {
	if mediaURL == "" || uc.files == nil {
		return
	}
	if err := uc.files.DeleteFile(ctx, mediaURL); err != nil {
		logger.Warn("RedactMessage: deleting media %s failed: %v", mediaURL, err)
	}
}

// MarkChatRead flags every message addressed to identity as read and returns
// the ids that changed.
func (uc *ChatUseCase) MarkChatRead(ctx context.Context, chatID, identity string) ([]string, error) {
	chat, err := uc.participantChat(ctx, chatID, identity)
	if err != nil {
		return nil, err
	}
	reader := entity.NormalizeIdentity(identity)

	unlock := uc.rooms.lock(chat.ID)
	defer unlock()

	changed, err := uc.chatRepo.MarkRead(ctx, chat.ID, reader)
	if err != nil {
		return nil, err
	}
	if changed == nil {
		changed = []string{}
	}

	if len(changed) > 0 {
		uc.publish(ctx, chat.ID, service.EventMessagesRead, ReadReceipt{
			ChatID:     chat.ID,
			Reader:     reader,
			MessageIDs: changed,
		})
	}
	return changed, nil
}

// appendAndPublish resolves the sender name, then persists and publishes while
// holding the room lock.
func (uc *ChatUseCase) appendAndPublish(ctx context.Context, message *entity.Message) (*MessageResponse, error) {
	names, err := uc.directory.ResolveDisplayNames(ctx, []string{message.SenderEmail})
	if err != nil {
		logger.Error("SendMessage Error: resolving sender %s: %v", message.SenderEmail, err)
		return nil, err
	}

	unlock := uc.rooms.lock(message.ChatID)
	defer unlock()

	stored, err := uc.chatRepo.AppendMessage(ctx, message)
	if err != nil {
		logger.Error("SendMessage Error: Failed to create message for chat %s: %v", message.ChatID, err)
		return nil, err
	}

	response := &MessageResponse{Message: stored, SenderUsername: names[stored.SenderEmail]}
	uc.publish(ctx, stored.ChatID, service.EventReceiveMessage, response)

	return response, nil
}

func (uc *ChatUseCase) publish(ctx context.Context, chatID, event string, payload interface{}) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, chatID, event, payload); err != nil {
		logger.Warn("Publishing %s to room %s failed: %v", event, chatID, err)
	}
}

func (uc *ChatUseCase) participantChat(ctx context.Context, chatID, identity string) (*entity.Chat, error) {
	identity = entity.NormalizeIdentity(identity)
	if chatID == "" || identity == "" {
		return nil, errors.Validation("chatId and identity are required", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(identity) {
		return nil, errors.Forbidden("User is not a participant in this chat", nil)
	}
	return chat, nil
}

func (uc *ChatUseCase) refreshDisplayNames(ctx context.Context, chats ...*entity.Chat) error {
	var identities []string
	for _, chat := range chats {
		identities = append(identities, chat.Emails()...)
	}
	if len(identities) == 0 {
		return nil
	}

	names, err := uc.directory.ResolveDisplayNames(ctx, identities)
	if err != nil {
		return err
	}
	for _, chat := range chats {
		applyDisplayNames(chat, names)
	}
	return nil
}

func applyDisplayNames(chat *entity.Chat, names map[string]string) {
	for i := range chat.Users {
		if name, ok := names[chat.Users[i].Email]; ok {
			chat.Users[i].Username = name
		}
	}
}

func checkParticipants(chat *entity.Chat, sender, receiver string) error {
	if !chat.HasParticipant(sender) {
		return errors.Forbidden("User is not a participant in this chat", nil)
	}
	if sender == receiver || !chat.HasParticipant(receiver) {
		return errors.ReceiverNotInChat(receiver, chat.ID)
	}
	return nil
}
