package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"hajzi/internal/domain/entity"
	"hajzi/internal/domain/repository"
	"hajzi/pkg/errors"
	"hajzi/pkg/logger"
)

// firestoreAppointmentRepository stores one document per slot. The document
// id is derived from (resourceId, date, time), so the tuple is unique.
type firestoreAppointmentRepository struct {
	client *firestore.Client
}

func NewFirestoreAppointmentRepository(client *firestore.Client) repository.AppointmentRepository {
	return &firestoreAppointmentRepository{
		client: client,
	}
}

func (r *firestoreAppointmentRepository) doc(key repository.SlotKey) *firestore.DocumentRef {
	return r.client.Collection(appointmentsCollection).Doc(slotKeyID(key))
}

func (r *firestoreAppointmentRepository) Create(ctx context.Context, slot *entity.Appointment) error {
	slot.ID = entity.SlotID(slot.ResourceID, slot.Date, slot.Time)
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	_, err := r.client.Collection(appointmentsCollection).Doc(slot.ID).Create(ctx, slot)
	if err != nil {
		if isAlreadyExists(err) {
			return errors.DuplicateSlot()
		}
		return errors.Dependency("Failed to create time slot", err)
	}
	return nil
}

func (r *firestoreAppointmentRepository) ListByResource(ctx context.Context, resourceID string) ([]*entity.Appointment, error) {
	docs, err := r.client.Collection(appointmentsCollection).
		Where("resourceId", "==", resourceID).
		Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while listing slots for %s: %v", resourceID, err)
		return nil, errors.Dependency("Failed to list time slots", err)
	}

	slots := make([]*entity.Appointment, 0, len(docs))
	for _, doc := range docs {
		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			logger.Warn("Skipping malformed slot %s: %v", doc.Ref.ID, err)
			continue
		}
		slot.ID = doc.Ref.ID
		slots = append(slots, &slot)
	}

	sortSlots(slots)
	return slots, nil
}

// Book reads the slot and flips it to booked inside one transaction. Firestore
// aborts and retries the loser of two overlapping transactions, and the retry
// then observes the booked status.
func (r *firestoreAppointmentRepository) Book(ctx context.Context, req repository.BookingRequest) (*entity.Appointment, error) {
	ref := r.doc(req.Key)

	var booked entity.Appointment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.SlotUnavailable()
			}
			return err
		}

		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			return errors.Internal("Failed to parse time slot", err)
		}
		if !slot.IsAvailable() {
			return errors.SlotUnavailable()
		}

		slot.ID = doc.Ref.ID
		slot.Status = entity.SlotStatusBooked
		slot.BookedBy = req.Requester
		slot.IsConfirmed = true
		if req.Duration > 0 {
			slot.Duration = req.Duration
		}
		slot.UpdatedAt = time.Now()
		booked = slot

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: slot.Status},
			{Path: "bookedBy", Value: slot.BookedBy},
			{Path: "isConfirmed", Value: true},
			{Path: "duration", Value: slot.Duration},
			{Path: "updatedAt", Value: slot.UpdatedAt},
		})
	})
	if err != nil {
		return nil, storeError("Failed to book time slot", err)
	}

	return &booked, nil
}

func (r *firestoreAppointmentRepository) Release(ctx context.Context, key repository.SlotKey, actor string) (*entity.Appointment, error) {
	ref := r.doc(key)

	var released entity.Appointment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Time slot", err)
			}
			return err
		}

		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			return errors.Internal("Failed to parse time slot", err)
		}
		slot.ID = doc.Ref.ID
		if !slot.CanRelease(actor) {
			return errNotSlotOwner
		}

		if slot.Status == entity.SlotStatusAvailable && slot.BookedBy == entity.AvailableMarker {
			released = slot
			return nil
		}

		slot.Status = entity.SlotStatusAvailable
		slot.BookedBy = entity.AvailableMarker
		slot.IsConfirmed = false
		slot.UpdatedAt = time.Now()
		released = slot

		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: slot.Status},
			{Path: "bookedBy", Value: slot.BookedBy},
			{Path: "isConfirmed", Value: false},
			{Path: "updatedAt", Value: slot.UpdatedAt},
		})
	})
	if err != nil {
		return nil, storeError("Failed to release time slot", err)
	}

	return &released, nil
}

func (r *firestoreAppointmentRepository) Delete(ctx context.Context, key repository.SlotKey, actor string) error {
	ref := r.doc(key)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Time slot", err)
			}
			return err
		}

		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			return errors.Internal("Failed to parse time slot", err)
		}
		if !slot.CanManage(actor) {
			return errNotSlotOwner
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return storeError("Failed to delete time slot", err)
	}
	return nil
}

// DeleteByResource refuses the whole batch when any slot belongs to someone
// else. Only the documents read here are deleted.
func (r *firestoreAppointmentRepository) DeleteByResource(ctx context.Context, resourceID, actor string) (int, error) {
	refs, err := r.client.Collection(appointmentsCollection).
		Where("resourceId", "==", resourceID).
		Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Dependency("Failed to list time slots", err)
	}
	if len(refs) == 0 {
		return 0, nil
	}

	for _, doc := range refs {
		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			return 0, errors.Internal("Failed to parse time slot", err)
		}
		if !slot.CanManage(actor) {
			return 0, errNotSlotOwner
		}
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, doc := range refs {
		job, err := bw.Delete(doc.Ref)
		if err != nil {
			bw.End()
			return 0, errors.Dependency("Failed to queue slot deletion", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	removed := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Error("Failed to delete slot for %s: %v", resourceID, err)
			continue
		}
		removed++
	}
	if removed < len(jobs) {
		return removed, errors.Dependency("Some time slots could not be deleted", nil)
	}

	return removed, nil
}

// Reschedule moves the slot document to the id of the new time. The target is
// read inside the same transaction, so a concurrent create at the new time
// aborts one side.
func (r *firestoreAppointmentRepository) Reschedule(ctx context.Context, req repository.RescheduleRequest) (*entity.Appointment, error) {
	fromRef := r.doc(req.From)
	toKey := repository.SlotKey{ResourceID: req.From.ResourceID, Date: req.From.Date, Time: req.NewTime}
	toRef := r.doc(toKey)

	var moved entity.Appointment
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(fromRef)
		if err != nil {
			if isNotFound(err) {
				return errors.NotFound("Time slot", err)
			}
			return err
		}

		var slot entity.Appointment
		if err := doc.DataTo(&slot); err != nil {
			return errors.Internal("Failed to parse time slot", err)
		}
		if !slot.CanManage(req.Actor) {
			return errNotSlotOwner
		}

		sameDoc := toRef.ID == fromRef.ID
		if !sameDoc {
			if _, err := tx.Get(toRef); err == nil {
				return errors.SlotConflict()
			} else if !isNotFound(err) {
				return err
			}
		}

		slot.ID = toRef.ID
		slot.Time = req.NewTime
		if req.Duration > 0 {
			slot.Duration = req.Duration
		}
		slot.UpdatedAt = time.Now()
		moved = slot

		if sameDoc {
			return tx.Set(fromRef, slot)
		}
		if err := tx.Create(toRef, slot); err != nil {
			return err
		}
		return tx.Delete(fromRef)
	})
	if err != nil {
		return nil, storeError("Failed to reschedule time slot", err)
	}

	return &moved, nil
}
