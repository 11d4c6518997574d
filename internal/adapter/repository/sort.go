package repository

import (
	"sort"

	"hajzi/internal/domain/entity"
)

// sortChatsByActivity orders chats by last message time, most recent first.
// Chats without messages fall back to their creation time.
func sortChatsByActivity(chats []*entity.Chat) {
	activity := func(c *entity.Chat) int64 {
		if c.LastMessageTime != nil {
			return c.LastMessageTime.UnixNano()
		}
		return c.CreatedAt.UnixNano()
	}
	sort.SliceStable(chats, func(i, j int) bool {
		return activity(chats[i]) > activity(chats[j])
	})
}

func sortMessagesBySeq(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Seq < messages[j].Seq
	})
}

func sortSlots(slots []*entity.Appointment) {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
