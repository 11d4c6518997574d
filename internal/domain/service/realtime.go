package service

import "context"

const (
	EventReceiveMessage = "receive_message"
	EventUpdateMessage  = "update_message"
	EventMessagesRead   = "messages_read"
)

// RealtimePublisher delivers an event to every connection joined to roomID.
// Delivery is best effort and nothing is persisted.
type RealtimePublisher interface {
	Publish(ctx context.Context, roomID, event string, payload interface{}) error
}
