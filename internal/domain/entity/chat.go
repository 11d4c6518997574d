package entity

import "time"

// Participant pairs an identity (email) with a cached display name. The
// username is refreshed from the identity directory whenever chats are read
// and is never used to match identities.
type Participant struct {
	Email    string `json:"email" firestore:"email"`
	Username string `json:"username" firestore:"username"`
}

type Chat struct {
	ID              string        `json:"_id" firestore:"id"`
	Users           []Participant `json:"users" firestore:"users"`
	ParticipantIDs  []string      `json:"-" firestore:"participantIds"` // emails, for array-contains queries
	Owner           string        `json:"owner" firestore:"owner"`
	Messages        []string      `json:"messages" firestore:"messages"`
	MessageCount    int64         `json:"messageCount" firestore:"messageCount"`
	LastMessage     *string       `json:"lastMessage" firestore:"lastMessage"`
	LastMessageTime *time.Time    `json:"lastMessageTime" firestore:"lastMessageTime"`
	CreatedAt       time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

func (c *Chat) HasParticipant(email string) bool {
	for _, id := range c.ParticipantIDs {
		if id == email {
			return true
		}
	}
	return false
}

// Emails returns the participant identities in stored order.
func (c *Chat) Emails() []string {
	emails := make([]string, 0, len(c.Users))
	for _, u := range c.Users {
		emails = append(emails, u.Email)
	}
	return emails
}
