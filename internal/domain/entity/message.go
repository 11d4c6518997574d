package entity

import "time"

type Message struct {
	ID            string    `json:"_id" firestore:"id"`
	ChatID        string    `json:"chatId" firestore:"chatId"`
	Seq           int64     `json:"seq" firestore:"seq"`
	SenderEmail   string    `json:"senderEmail" firestore:"senderEmail"`
	ReceiverEmail string    `json:"receiverEmail" firestore:"receiverEmail"`
	Content       string    `json:"content" firestore:"content"`
	MediaURL      string    `json:"mediaUrl,omitempty" firestore:"mediaUrl,omitempty"`
	Timestamp     time.Time `json:"timestamp" firestore:"timestamp"`
	IsRead        bool      `json:"isRead" firestore:"isRead"`
	ReadBy        []string  `json:"readBy" firestore:"readBy"`
	Redacted      bool      `json:"redacted,omitempty" firestore:"redacted,omitempty"`
}

const (
	// MediaPlaceholder stands in for the last message summary of media-only messages.
	MediaPlaceholder = "[image]"
	// RedactedPlaceholder replaces the summary of a redacted message.
	RedactedPlaceholder = "[deleted]"
)

// Summary is the text shown as a chat's last message.
func (m *Message) Summary() string {
	if m.Redacted {
		return RedactedPlaceholder
	}
	if m.Content != "" {
		return m.Content
	}
	return MediaPlaceholder
}
