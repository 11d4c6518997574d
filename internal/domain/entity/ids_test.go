package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChatIDForIsOrderIndependent(t *testing.T) {
	a := ChatIDFor("alice@x.com", "shop1@x.com")
	b := ChatIDFor("shop1@x.com", "Alice@x.com ")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, ChatIDFor("alice@x.com", "shop2@x.com"))
}

func TestSlotIDDistinguishesTuples(t *testing.T) {
	id := SlotID("shop1", "2025-03-01", "09:00")

	assert.Equal(t, id, SlotID("shop1", "2025-03-01", "09:00"))
	assert.NotEqual(t, id, SlotID("shop1", "2025-03-01", "09:30"))
	assert.NotEqual(t, id, SlotID("shop1", "2025-03-02", "09:00"))
	assert.NotEqual(t, id, SlotID("shop2", "2025-03-01", "09:00"))
}

func TestAppointmentNormalized(t *testing.T) {
	slot := Appointment{ResourceID: "shop1", Time: "09:00"}.Normalized()

	assert.Equal(t, DefaultSlotDuration, slot.Duration)
	assert.Equal(t, SlotStatusAvailable, slot.Status)
	assert.Equal(t, AvailableMarker, slot.BookedBy)
}

func TestMessageSummary(t *testing.T) {
	assert.Equal(t, "hi", (&Message{Content: "hi"}).Summary())
	assert.Equal(t, MediaPlaceholder, (&Message{MediaURL: "https://cdn/x.png"}).Summary())
}
