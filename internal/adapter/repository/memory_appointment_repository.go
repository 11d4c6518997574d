package repository

import (
	"context"
	"sync"
	"time"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
)

type memoryAppointmentRepository struct {
	mu    sync.Mutex
	slots map[string]*entity.Appointment
}

func NewMemoryAppointmentRepository() repository.AppointmentRepository {
	return &memoryAppointmentRepository{
		slots: make(map[string]*entity.Appointment),
	}
}

func (r *memoryAppointmentRepository) Create(ctx context.Context, slot *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot.ID = entity.SlotID(slot.ResourceID, slot.Date, slot.Time)
	if _, exists := r.slots[slot.ID]; exists {
		return errors.DuplicateSlot()
	}

	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	stored := *slot
	r.slots[slot.ID] = &stored

	return nil
}

func (r *memoryAppointmentRepository) ListByResource(ctx context.Context, resourceID string) ([]*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var slots []*entity.Appointment
	for _, slot := range r.slots {
		if slot.ResourceID == resourceID {
			s := *slot
			slots = append(slots, &s)
		}
	}
	sortSlots(slots)
	return slots, nil
}

func (r *memoryAppointmentRepository) Book(ctx context.Context, req repository.BookingRequest) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotKeyID(req.Key)]
	if !ok || !slot.IsAvailable() {
		return nil, errors.SlotUnavailable()
	}

	slot.Status = entity.SlotStatusBooked
	slot.BookedBy = req.Requester
	slot.IsConfirmed = true
	if req.Duration > 0 {
		slot.Duration = req.Duration
	}
	slot.UpdatedAt = time.Now()

	s := *slot
	return &s, nil
}

func (r *memoryAppointmentRepository) Release(ctx context.Context, key repository.SlotKey, actor string) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slots[slotKeyID(key)]
	if !ok {
		return nil, errors.NotFound("Time slot", nil)
	}
	if !slot.CanRelease(actor) {
		return nil, errNotSlotOwner
	}

	if slot.Status != entity.SlotStatusAvailable || slot.BookedBy != entity.AvailableMarker {
		slot.Status = entity.SlotStatusAvailable
		slot.BookedBy = entity.AvailableMarker
		slot.IsConfirmed = false
		slot.UpdatedAt = time.Now()
	}

	s := *slot
	return &s, nil
}

func (r *memoryAppointmentRepository) Delete(ctx context.Context, key repository.SlotKey, actor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := slotKeyID(key)
	slot, ok := r.slots[id]
	if !ok {
		return errors.NotFound("Time slot", nil)
	}
	if !slot.CanManage(actor) {
		return errNotSlotOwner
	}
	delete(r.slots, id)
	return nil
}

func (r *memoryAppointmentRepository) DeleteByResource(ctx context.Context, resourceID, actor string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, slot := range r.slots {
		if slot.ResourceID == resourceID && !slot.CanManage(actor) {
			return 0, errNotSlotOwner
		}
	}

	removed := 0
	for id, slot := range r.slots {
		if slot.ResourceID == resourceID {
			delete(r.slots, id)
			removed++
		}
	}
	return removed, nil
}

func (r *memoryAppointmentRepository) Reschedule(ctx context.Context, req repository.RescheduleRequest) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromID := slotKeyID(req.From)
	slot, ok := r.slots[fromID]
	if !ok {
		return nil, errors.NotFound("Time slot", nil)
	}
	if !slot.CanManage(req.Actor) {
		return nil, errNotSlotOwner
	}

	toKey := repository.SlotKey{ResourceID: req.From.ResourceID, Date: req.From.Date, Time: req.NewTime}
	toID := slotKeyID(toKey)
	if toID != fromID {
		if _, taken := r.slots[toID]; taken {
			return nil, errors.SlotConflict()
		}
	}

	moved := *slot
	moved.ID = toID
	moved.Time = req.NewTime
	if req.Duration > 0 {
		moved.Duration = req.Duration
	}
	moved.UpdatedAt = time.Now()

	delete(r.slots, fromID)
	r.slots[toID] = &moved

	s := moved
	return &s, nil
}

var errNotSlotOwner = errors.Forbidden("Only the slot owner can change this time slot", nil)

func slotKeyID(key repository.SlotKey) string {
	return entity.SlotID(key.ResourceID, key.Date, key.Time)
}
