package booking

import (
	"context"
	"time"

	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/models"
	"glowdesk/utils"

	"go.uber.org/zap"
)

// BookingStateMachine owns booking status transitions. Provisional bookings
// move to confirmed or cancelled, both terminal; reschedule is a same-state
// update of the appointment time. The machine never locks slots client-side:
// the authoritative conflict check is the server's, and only obviously
// invalid inputs (past dates, cancelled bookings) are rejected here.
type BookingStateMachine struct {
	Repo     bookingRepo.BookingRepository
	Resolver *AvailabilityResolver
	Dispatch Dispatcher

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func (sm *BookingStateMachine) now() time.Time {
	if sm.Now != nil {
		return sm.Now()
	}
	return time.Now()
}

// Confirm moves a provisional booking to confirmed. Confirming an already
// confirmed booking is a no-op, not an error. A booking may only be
// confirmed against a payment attempt the gateway reported as settled;
// cancelled bookings are never resurrected by a late payment.
func (sm *BookingStateMachine) Confirm(ctx context.Context, bookingID string) (*models.Booking, error) {
	logger := utils.GetLogger()

	b, err := sm.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, NewStateTransitionError("booking not found")
	}

	switch b.Status {
	case models.BookingStatusConfirmed:
		// Re-run the dispatch: side effects lost to an earlier enqueue
		// failure get another chance, the dedup marker keeps them at-most-once.
		if sm.Dispatch != nil {
			if err := sm.Dispatch.OnConfirmed(ctx, b); err != nil {
				logger.Error("side effect dispatch failed",
					zap.String("bookingID", bookingID), zap.Error(err))
			}
		}
		return b, nil
	case models.BookingStatusCancelled:
		return nil, NewStateTransitionError("cannot confirm a cancelled booking")
	}

	attempt, err := sm.Repo.GetPaymentAttempt(ctx, b.CheckoutRequestID)
	if err != nil || !models.PaymentSettled(attempt.Status) {
		return nil, NewStateTransitionError("booking has no verified payment")
	}

	if err := sm.Repo.UpdateBookingStatus(bookingID, models.BookingStatusConfirmed); err != nil {
		return nil, NewStateTransitionError("failed to persist confirmation")
	}
	b.Status = models.BookingStatusConfirmed
	b.UpdatedAt = sm.now()

	if sm.Dispatch != nil {
		if err := sm.Dispatch.OnConfirmed(ctx, b); err != nil {
			// Side effects must not undo the confirmation.
			logger.Error("side effect dispatch failed",
				zap.String("bookingID", bookingID), zap.Error(err))
		}
	}

	logger.Info("booking confirmed", zap.String("bookingID", bookingID))
	return b, nil
}

// Cancel moves a provisional or confirmed booking to cancelled. Terminal:
// nothing in this machine ever reverses it. Cancelling an already cancelled
// booking is a no-op.
func (sm *BookingStateMachine) Cancel(ctx context.Context, bookingID string) (*models.Booking, error) {
	logger := utils.GetLogger()

	b, err := sm.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, NewStateTransitionError("booking not found")
	}

	if b.Status == models.BookingStatusCancelled {
		return b, nil
	}

	if err := sm.Repo.UpdateBookingStatus(bookingID, models.BookingStatusCancelled); err != nil {
		return nil, NewStateTransitionError("failed to persist cancellation")
	}
	b.Status = models.BookingStatusCancelled
	b.UpdatedAt = sm.now()

	logger.Info("booking cancelled", zap.String("bookingID", bookingID))
	return b, nil
}

// Reschedule moves the appointment to a new time (and optionally a new
// service) without touching the status. Cancelled bookings reject all
// reschedules; past dates are rejected for every status. The target slot's
// availability is re-resolved first, but an unavailable slot only warns:
// the operator may knowingly overbook, payment confirmation remains the
// true gate.
func (sm *BookingStateMachine) Reschedule(ctx context.Context, bookingID string, newDateTime time.Time, newService string) (*models.Booking, error) {
	logger := utils.GetLogger()

	b, err := sm.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, NewStateTransitionError("booking not found")
	}

	if b.Status == models.BookingStatusCancelled {
		return nil, NewStateTransitionError("cannot reschedule a cancelled booking")
	}
	if newDateTime.Before(sm.now()) {
		return nil, NewValidationError("cannot reschedule into the past")
	}

	if sm.Resolver != nil {
		service := newService
		if service == "" {
			service = b.Service
		}
		slots := sm.Resolver.Resolve(ctx, newDateTime.Format("2006-01-02"), service)
		if !slotOffered(slots, newDateTime) {
			logger.Warn("rescheduling onto a slot not marked available",
				zap.String("bookingID", bookingID),
				zap.Time("newDateTime", newDateTime))
		}
	}

	if other, err := sm.Repo.FindActiveBookingAt(ctx, newDateTime); err == nil && other != nil && other.ID != bookingID {
		logger.Warn("rescheduling onto a slot held by another booking",
			zap.String("bookingID", bookingID),
			zap.String("occupiedBy", other.ID),
			zap.Time("newDateTime", newDateTime))
	}

	if err := sm.Repo.SetBookingSchedule(bookingID, newDateTime, newService); err != nil {
		return nil, NewStateTransitionError("failed to persist reschedule")
	}
	b.DateTime = newDateTime
	if newService != "" {
		b.Service = newService
	}
	b.UpdatedAt = sm.now()

	logger.Info("booking rescheduled",
		zap.String("bookingID", bookingID), zap.Time("newDateTime", newDateTime))
	return b, nil
}

// slotOffered reports whether the requested time appears in the resolved
// slot list as available.
func slotOffered(slots []models.AvailabilitySlot, t time.Time) bool {
	for _, s := range slots {
		if s.Time.Equal(t) {
			return s.Available
		}
	}
	return false
}
