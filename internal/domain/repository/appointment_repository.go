package repository

import (
	"context"

	"hajzi/internal/domain/entity"
)

// SlotKey identifies a slot; at most one slot exists per key.
type SlotKey struct {
	ResourceID string
	Date       string
	Time       string
}

type BookingRequest struct {
	Key       SlotKey
	Requester string
	Duration  int // zero keeps the stored duration
}

type RescheduleRequest struct {
	From     SlotKey
	NewTime  string
	Duration int // zero keeps the stored duration
	Actor    string
}

type AppointmentRepository interface {
	// Create fails with DUPLICATE_SLOT when the key is taken.
	Create(ctx context.Context, slot *entity.Appointment) error
	ListByResource(ctx context.Context, resourceID string) ([]*entity.Appointment, error)
	// Book is a single conditional update: it succeeds only when the slot
	// exists and is available at the instant of the write.
	Book(ctx context.Context, req BookingRequest) (*entity.Appointment, error)
	// Release, Delete, DeleteByResource and Reschedule check the actor
	// against the stored slot in the same write and fail with FORBIDDEN.
	Release(ctx context.Context, key SlotKey, actor string) (*entity.Appointment, error)
	Delete(ctx context.Context, key SlotKey, actor string) error
	DeleteByResource(ctx context.Context, resourceID, actor string) (int, error)
	Reschedule(ctx context.Context, req RescheduleRequest) (*entity.Appointment, error)
}
