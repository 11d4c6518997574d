package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
	"hajzi/pkg/validation"
)

const (
	slotDateLayout = "2006-01-02"
	slotTimeLayout = "15:04"
)

type SlotUseCase struct {
	slotRepo repository.AppointmentRepository
	validate *validator.Validate
}

func NewSlotUseCase(slotRepo repository.AppointmentRepository) *SlotUseCase {
	return &SlotUseCase{
		slotRepo: slotRepo,
		validate: validation.New(),
	}
}

type SlotInput struct {
	ResourceID string `json:"resourceId" validate:"required"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	// Actor is the authenticated caller. CreateSlot records it as the owner.
	Actor string `json:"-"`
}

type CreateSlotInput struct {
	SlotInput
	Duration int `json:"duration" validate:"omitempty,min=1,max=1440"`
}

type BookSlotInput struct {
	SlotInput
	Requester string `json:"userName" validate:"required"`
	Duration  int    `json:"duration" validate:"omitempty,min=1,max=1440"`
}

type RescheduleSlotInput struct {
	SlotInput
	NewTime  string `json:"newTime" validate:"required"`
	Duration int    `json:"duration" validate:"omitempty,min=1,max=1440"`
}

func (uc *SlotUseCase) CreateSlot(ctx context.Context, input CreateSlotInput) (*entity.Appointment, error) {
	key, err := uc.slotKey(input.SlotInput, input)
	if err != nil {
		return nil, err
	}

	duration := input.Duration
	if duration == 0 {
		duration = entity.DefaultSlotDuration
	}

	slot := &entity.Appointment{
		ResourceID: key.ResourceID,
		Owner:      entity.NormalizeIdentity(input.Actor),
		Date:       key.Date,
		Time:       key.Time,
		Duration:   duration,
		BookedBy:   entity.AvailableMarker,
		Status:     entity.SlotStatusAvailable,
	}
	if err := uc.slotRepo.Create(ctx, slot); err != nil {
		if !errors.Is(err, errors.CodeDuplicateSlot) {
			logger.Error("CreateSlot Error: %s %s %s: %v", key.ResourceID, key.Date, key.Time, err)
		}
		return nil, err
	}

	return slot, nil
}

// ListSlots returns the resource's slots ordered by date and time, with read
// defaults applied.
func (uc *SlotUseCase) ListSlots(ctx context.Context, resourceID string) ([]*entity.Appointment, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return nil, errors.Validation("resourceId is required", nil)
	}

	slots, err := uc.slotRepo.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	normalized := make([]*entity.Appointment, 0, len(slots))
	for _, s := range slots {
		n := s.Normalized()
		normalized = append(normalized, &n)
	}
	return normalized, nil
}

// BookSlot claims an available slot for the requester. A slot that is missing
// or already booked yields SLOT_UNAVAILABLE.
func (uc *SlotUseCase) BookSlot(ctx context.Context, input BookSlotInput) (*entity.Appointment, error) {
	key, err := uc.slotKey(input.SlotInput, input)
	if err != nil {
		return nil, err
	}

	slot, err := uc.slotRepo.Book(ctx, repository.BookingRequest{
		Key:       key,
		Requester: entity.NormalizeIdentity(input.Requester),
		Duration:  input.Duration,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Slot %s %s %s booked by %s", key.ResourceID, key.Date, key.Time, slot.BookedBy)
	n := slot.Normalized()
	return &n, nil
}

// ReleaseSlot makes a slot available again. Releasing an available slot is a
// no-op. Only the owner or the current holder may release.
func (uc *SlotUseCase) ReleaseSlot(ctx context.Context, input SlotInput) (*entity.Appointment, error) {
	key, err := uc.slotKey(input, input)
	if err != nil {
		return nil, err
	}

	slot, err := uc.slotRepo.Release(ctx, key, entity.NormalizeIdentity(input.Actor))
	if err != nil {
		return nil, err
	}
	n := slot.Normalized()
	return &n, nil
}

func (uc *SlotUseCase) DeleteSlot(ctx context.Context, input SlotInput) error {
	key, err := uc.slotKey(input, input)
	if err != nil {
		return err
	}
	return uc.slotRepo.Delete(ctx, key, entity.NormalizeIdentity(input.Actor))
}

// DeleteAllSlots removes every slot of the resource and returns how many were
// removed. Nothing is removed when actor does not own all of them.
func (uc *SlotUseCase) DeleteAllSlots(ctx context.Context, resourceID, actor string) (int, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return 0, errors.Validation("resourceId is required", nil)
	}

	removed, err := uc.slotRepo.DeleteByResource(ctx, resourceID, entity.NormalizeIdentity(actor))
	if err != nil {
		if !errors.Is(err, errors.CodeForbidden) {
			logger.Error("DeleteAllSlots Error: %s: %v", resourceID, err)
		}
		return removed, err
	}
	return removed, nil
}

// RescheduleSlot moves a slot to a new time on the same date, keeping its
// booking state.
func (uc *SlotUseCase) RescheduleSlot(ctx context.Context, input RescheduleSlotInput) (*entity.Appointment, error) {
	key, err := uc.slotKey(input.SlotInput, input)
	if err != nil {
		return nil, err
	}

	newTime, err := NormalizeSlotTime(input.NewTime)
	if err != nil {
		return nil, errors.Validation("newTime must be HH:MM", err)
	}

	slot, err := uc.slotRepo.Reschedule(ctx, repository.RescheduleRequest{
		From:     key,
		NewTime:  newTime,
		Duration: input.Duration,
		Actor:    entity.NormalizeIdentity(input.Actor),
	})
	if err != nil {
		return nil, err
	}
	n := slot.Normalized()
	return &n, nil
}

// slotKey validates the full input s and returns the normalised key of base.
func (uc *SlotUseCase) slotKey(base SlotInput, s interface{}) (repository.SlotKey, error) {
	if err := validation.Check(uc.validate, s); err != nil {
		return repository.SlotKey{}, err
	}

	date, err := NormalizeSlotDate(base.Date)
	if err != nil {
		return repository.SlotKey{}, errors.Validation("date must be YYYY-MM-DD", err)
	}
	t, err := NormalizeSlotTime(base.Time)
	if err != nil {
		return repository.SlotKey{}, errors.Validation("time must be HH:MM", err)
	}

	return repository.SlotKey{
		ResourceID: strings.TrimSpace(base.ResourceID),
		Date:       date,
		Time:       t,
	}, nil
}

// NormalizeSlotTime accepts HH:MM or HH:MM:SS with zero seconds and returns HH:MM.
func NormalizeSlotTime(value string) (string, error) {
	value = strings.TrimSpace(value)
	if len(value) == len("15:04:05") {
		if !strings.HasSuffix(value, ":00") {
			return "", errors.Validation("slots start on a whole minute", nil)
		}
		value = value[:len("15:04")]
	}

	t, err := time.Parse(slotTimeLayout, value)
	if err != nil {
		return "", err
	}
	return t.Format(slotTimeLayout), nil
}

func NormalizeSlotDate(value string) (string, error) {
	d, err := time.Parse(slotDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return d.Format(slotDateLayout), nil
}
