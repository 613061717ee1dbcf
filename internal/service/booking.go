package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tanjiaxian99/nusfitness-api/internal/metrics"
	"github.com/tanjiaxian99/nusfitness-api/internal/model"
	"github.com/tanjiaxian99/nusfitness-api/internal/queue"
	"github.com/tanjiaxian99/nusfitness-api/internal/repository"
)

// BookingStore is satisfied by repository.BookingRepo.
type BookingStore interface {
	CountSlot(ctx context.Context, facility string, slot time.Time) (int, error)
	Insert(ctx context.Context, b *model.Booking) error
	DeleteOne(ctx context.Context, email, facility string, slot time.Time) error
	CountBySlot(ctx context.Context, facility string, start, end time.Time) ([]model.SlotCount, error)
	ListByOwner(ctx context.Context, email, facility string) ([]model.Booking, error)
}

// BookingService is the slot capacity ledger and its read side.
//
// The capacity check and the insert are separate statements: two
// concurrent bookings of the last seat can both succeed.  Sequential
// requests are exact.
type BookingService struct {
	store       BookingStore
	maxCapacity int
	cutoff      time.Duration
	events      Publisher
	metrics     metrics.Recorder
	log         zerolog.Logger
	now         func() time.Time
}

type BookingOptions struct {
	MaxCapacity  int
	CancelCutoff time.Duration
}

func NewBookingService(store BookingStore, opts BookingOptions, events Publisher, m metrics.Recorder, log zerolog.Logger) *BookingService {
	return &BookingService{
		store:       store,
		maxCapacity: opts.MaxCapacity,
		cutoff:      opts.CancelCutoff,
		events:      events,
		metrics:     m,
		log:         log.With().Str("component", "booking").Logger(),
		now:         time.Now,
	}
}

// NormalizeSlot maps a slot instant to the stored representation: UTC,
// whole seconds.
func NormalizeSlot(t time.Time) time.Time { return t.UTC().Truncate(time.Second) }

// Book reserves one place in (facility, slot) for id.  Past slots and
// repeat bookings by the same identity are accepted.
func (s *BookingService) Book(ctx context.Context, id Identity, facility string, slot time.Time) error {
	slot = NormalizeSlot(slot)
	n, err := s.store.CountSlot(ctx, facility, slot)
	if err != nil {
		s.metrics.IncBookings("book", "error")
		return fmt.Errorf("count slot: %w", err)
	}
	if n >= s.maxCapacity {
		s.metrics.IncBookings("book", "slot_full")
		return ErrSlotFull
	}
	if err := s.store.Insert(ctx, &model.Booking{Email: id.Email, Facility: facility, Slot: slot}); err != nil {
		s.metrics.IncBookings("book", "error")
		return fmt.Errorf("insert booking: %w", err)
	}
	s.metrics.IncBookings("book", "ok")
	publish(s.log, s.events, queue.BookingCreated, bookingEvent(id, facility, slot))
	return nil
}

// Cancel removes one of id's bookings of (facility, slot).  Slots starting
// within the cutoff window, or already past, cannot be cancelled; that is
// checked before any lookup.
func (s *BookingService) Cancel(ctx context.Context, id Identity, facility string, slot time.Time) error {
	slot = NormalizeSlot(slot)
	if slot.Add(-s.cutoff).Before(s.now()) {
		s.metrics.IncBookings("cancel", "too_late")
		return ErrTooLateToCancel
	}
	if err := s.store.DeleteOne(ctx, id.Email, facility, slot); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncBookings("cancel", "not_found")
			return ErrSlotNotFound
		}
		s.metrics.IncBookings("cancel", "error")
		return fmt.Errorf("delete booking: %w", err)
	}
	s.metrics.IncBookings("cancel", "ok")
	publish(s.log, s.events, queue.BookingCancelled, bookingEvent(id, facility, slot))
	return nil
}

// CountByTimeBucket reports the occupied slots of facility in
// [start, end).  A nil end means one day after start.
func (s *BookingService) CountByTimeBucket(ctx context.Context, facility string, start time.Time, end *time.Time) ([]model.SlotCount, error) {
	to := start.Add(24 * time.Hour)
	if end != nil {
		to = *end
	}
	return s.store.CountBySlot(ctx, facility, start, to)
}

// ListReservations returns id's bookings, latest slot first, optionally
// restricted to one facility.
func (s *BookingService) ListReservations(ctx context.Context, id Identity, facility string) ([]model.Booking, error) {
	return s.store.ListByOwner(ctx, id.Email, facility)
}
