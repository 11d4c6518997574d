package entity

import "time"

const (
	SlotStatusAvailable = "available"
	SlotStatusBooked    = "booked"

	// AvailableMarker is stored as bookedBy while nobody holds the slot.
	AvailableMarker = "Available Slot"

	DefaultSlotDuration = 30 // minutes
)

type Appointment struct {
	ID          string    `json:"_id" firestore:"id"`
	ResourceID  string    `json:"resourceId" firestore:"resourceId"`
	Owner       string    `json:"owner,omitempty" firestore:"owner,omitempty"`
	Date        string    `json:"date" firestore:"date"` // YYYY-MM-DD
	Time        string    `json:"time" firestore:"time"` // HH:MM
	Duration    int       `json:"duration" firestore:"duration"`
	BookedBy    string    `json:"userName" firestore:"bookedBy"`
	Status      string    `json:"status" firestore:"status"`
	IsConfirmed bool      `json:"isConfirmed" firestore:"isConfirmed"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// Normalized applies read-time defaults for records written without them.
func (a Appointment) Normalized() Appointment {
	if a.Duration <= 0 {
		a.Duration = DefaultSlotDuration
	}
	if a.Status == "" {
		a.Status = SlotStatusAvailable
	}
	if a.BookedBy == "" {
		a.BookedBy = AvailableMarker
	}
	return a
}

func (a *Appointment) IsAvailable() bool {
	return a.Status == "" || a.Status == SlotStatusAvailable
}

// CanManage reports whether identity may reschedule or delete the slot.
// Slots stored without an owner stay open to any caller.
func (a *Appointment) CanManage(identity string) bool {
	return a.Owner == "" || a.Owner == identity
}

// CanRelease also lets the current holder give the slot back.
func (a *Appointment) CanRelease(identity string) bool {
	if a.CanManage(identity) {
		return true
	}
	return identity != "" && a.Status == SlotStatusBooked && a.BookedBy == identity
}
