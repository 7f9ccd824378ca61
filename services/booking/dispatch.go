package booking

import (
	"context"
	"fmt"
	"time"

	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/gateway/calendar"
	"glowdesk/models"
	"glowdesk/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dispatcher receives confirmed-transition notifications from the state
// machine.
type Dispatcher interface {
	OnConfirmed(ctx context.Context, booking *models.Booking) error
}

// DedupStore records that a side-effect batch has fired for a given key.
// MarkOnce returns true only for the first caller of a key; Release frees
// the key again so a failed batch can be retried.
type DedupStore interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisDedupStore implements DedupStore with SETNX markers.
type RedisDedupStore struct{}

func (s *RedisDedupStore) MarkOnce(ctx context.Context, key string) (bool, error) {
	client := utils.GetDispatchCacheClient()
	ok, err := client.SetNX(ctx, utils.DispatchCachePrefix+key, 1, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dispatch marker: %w", err)
	}
	return ok, nil
}

func (s *RedisDedupStore) Release(ctx context.Context, key string) error {
	client := utils.GetDispatchCacheClient()
	if err := client.Del(ctx, utils.DispatchCachePrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release dispatch marker: %w", err)
	}
	return nil
}

// ReminderScheduler queues a reminder for future delivery.
type ReminderScheduler interface {
	Schedule(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
}

// AlertSender pushes an informational alert to the dashboard operator.
type AlertSender interface {
	NotifyOperator(ctx context.Context, title, body string, data map[string]string) error
}

// SideEffectDispatcher fires downstream actions for confirmed bookings:
// reminder and follow-up scheduling, operator alerts, batch calendar sync.
// Everything here is at-most-once per booking+status pair; invoice
// generation stays an explicit operator action.
type SideEffectDispatcher struct {
	Repo      bookingRepo.BookingRepository
	Dedup     DedupStore
	Reminders ReminderScheduler
	Calendar  calendar.Client
	Alerts    AlertSender
}

// OnConfirmed schedules the appointment reminder and follow-up for a newly
// confirmed booking, exactly once per booking. A repeated confirmation (the
// confirm endpoint is idempotent) finds the dedup marker set and does
// nothing. When an enqueue fails the marker is released again, so the next
// confirmation retries the batch instead of losing it.
func (d *SideEffectDispatcher) OnConfirmed(ctx context.Context, booking *models.Booking) error {
	logger := utils.GetLogger()

	dedupKey := booking.ID + ":" + models.BookingStatusConfirmed
	first, err := d.Dedup.MarkOnce(ctx, dedupKey)
	if err != nil {
		return err
	}
	if !first {
		logger.Debug("side effects already dispatched", zap.String("bookingID", booking.ID))
		return nil
	}

	reminderAt := booking.DateTime.Add(-24 * time.Hour)
	if reminderAt.Before(time.Now()) {
		reminderAt = time.Now()
	}
	reminder := models.ReminderPayload{
		ReminderID: uuid.New().String(),
		BookingID:  booking.ID,
		Kind:       models.ReminderKindUpcoming,
		Title:      "Upcoming appointment",
		Body:       fmt.Sprintf("%s for %s at %s", booking.Service, booking.RecipientName, booking.DateTime.Format(time.RFC1123)),
		FireDate:   reminderAt.Format(time.RFC3339),
	}
	var scheduleErr error
	if err := d.Reminders.Schedule(ctx, reminder, reminderAt); err != nil {
		logger.Error("failed to schedule reminder",
			zap.String("bookingID", booking.ID), zap.Error(err))
		scheduleErr = err
	}

	followUpAt := booking.DateTime.Add(24 * time.Hour)
	followUp := models.ReminderPayload{
		ReminderID: uuid.New().String(),
		BookingID:  booking.ID,
		Kind:       models.ReminderKindFollowUp,
		Title:      "Appointment follow-up",
		Body:       fmt.Sprintf("Follow up with %s about their %s", booking.RecipientName, booking.Service),
		FireDate:   followUpAt.Format(time.RFC3339),
	}
	if err := d.Reminders.Schedule(ctx, followUp, followUpAt); err != nil {
		logger.Error("failed to schedule follow-up",
			zap.String("bookingID", booking.ID), zap.Error(err))
		scheduleErr = err
	}

	if scheduleErr != nil {
		if relErr := d.Dedup.Release(ctx, dedupKey); relErr != nil {
			logger.Error("failed to release dispatch marker",
				zap.String("bookingID", booking.ID), zap.Error(relErr))
		}
		return scheduleErr
	}

	if d.Alerts != nil {
		data := map[string]string{"bookingId": booking.ID, "status": booking.Status}
		if err := d.Alerts.NotifyOperator(ctx, "Booking confirmed",
			fmt.Sprintf("Payment received for %s", booking.RecipientName), data); err != nil {
			logger.Warn("operator alert failed", zap.Error(err))
		}
	}

	return nil
}

// BuildInvoice generates an invoice for a confirmed booking. It is bound to
// the confirmed status as a precondition but is never auto-invoked; the
// operator triggers it explicitly.
func (d *SideEffectDispatcher) BuildInvoice(booking *models.Booking) (*models.Invoice, error) {
	if booking.Status != models.BookingStatusConfirmed {
		return nil, NewStateTransitionError("invoice requires a confirmed booking")
	}
	return &models.Invoice{
		InvoiceID:     uuid.New().String(),
		BookingID:     booking.ID,
		Amount:        booking.Amount,
		PaymentMethod: "mpesa",
		Status:        "paid",
		CreatedAt:     time.Now(),
	}, nil
}

// SyncCalendar scans all confirmed bookings lacking a calendar sync ID and
// creates external calendar events for them. Idempotent per booking:
// already-synced bookings are skipped, and a failure on one booking does
// not stop the scan.
func (d *SideEffectDispatcher) SyncCalendar(ctx context.Context) (synced, skipped int, err error) {
	logger := utils.GetLogger()

	pending, err := d.Repo.FindConfirmedWithoutCalendarSync(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to scan for unsynced bookings: %w", err)
	}

	for i := range pending {
		b := &pending[i]
		if b.CalendarSyncID != "" {
			skipped++
			continue
		}

		eventID, err := d.Calendar.CreateEvent(ctx, b)
		if err != nil {
			logger.Error("calendar event creation failed",
				zap.String("bookingID", b.ID), zap.Error(err))
			skipped++
			continue
		}
		if err := d.Repo.SetCalendarSyncID(b.ID, eventID); err != nil {
			logger.Error("failed to record calendar sync id",
				zap.String("bookingID", b.ID), zap.Error(err))
			skipped++
			continue
		}
		synced++
	}

	logger.Info("calendar sync completed",
		zap.Int("synced", synced), zap.Int("skipped", skipped))
	return synced, skipped, nil
}
