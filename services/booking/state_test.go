package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"glowdesk/models"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type machineFixture struct {
	machine   *BookingStateMachine
	repo      *fakeBookingRepo
	scheduler *recordingScheduler
	dedup     *memDedupStore
}

func newMachineFixture() *machineFixture {
	repo := newFakeBookingRepo()
	scheduler := &recordingScheduler{}
	dedup := newMemDedupStore()
	dispatcher := &SideEffectDispatcher{
		Repo:      repo,
		Dedup:     dedup,
		Reminders: scheduler,
		Calendar:  newFakeCalendar(),
	}
	machine := &BookingStateMachine{
		Repo:     repo,
		Dispatch: dispatcher,
		Now:      func() time.Time { return fixedNow },
	}
	return &machineFixture{machine: machine, repo: repo, scheduler: scheduler, dedup: dedup}
}

func (f *machineFixture) seedBooking(status, paymentStatus string) *models.Booking {
	b := &models.Booking{
		ID:                "bk-1",
		CustomerID:        "cust-1",
		Service:           "Gold Package",
		DateTime:          fixedNow.Add(72 * time.Hour),
		RecipientName:     "Wanjiku",
		RecipientPhone:    "254712345678",
		Status:            status,
		CheckoutRequestID: "ws_1",
		CreatedAt:         fixedNow,
		UpdatedAt:         fixedNow,
	}
	f.repo.CreateBooking(b)
	f.repo.CreatePaymentAttempt(&models.PaymentAttempt{
		CheckoutRequestID: "ws_1",
		BookingID:         "bk-1",
		Status:            paymentStatus,
	})
	return b
}

func TestBookingStateMachine_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms a provisional booking with settled payment", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusSuccess)

		b, err := f.machine.Confirm(ctx, "bk-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != models.BookingStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", b.Status)
		}
		stored, _ := f.repo.GetBookingByID(ctx, "bk-1")
		if stored.Status != models.BookingStatusConfirmed {
			t.Fatalf("confirmation not persisted: %s", stored.Status)
		}
	})

	t.Run("double confirm is a no-op with no duplicate side effects", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusSuccess)

		if _, err := f.machine.Confirm(ctx, "bk-1"); err != nil {
			t.Fatalf("first confirm failed: %v", err)
		}
		b, err := f.machine.Confirm(ctx, "bk-1")
		if err != nil {
			t.Fatalf("second confirm failed: %v", err)
		}
		if b.Status != models.BookingStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", b.Status)
		}
		// One reminder and one follow-up, from the first confirm only.
		if f.scheduler.count() != 2 {
			t.Fatalf("expected 2 scheduled tasks, got %d", f.scheduler.count())
		}
	})

	t.Run("re-confirm retries side effects lost to a failed enqueue", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusSuccess)
		f.scheduler.failNext = 2

		b, err := f.machine.Confirm(ctx, "bk-1")
		if err != nil {
			t.Fatalf("first confirm failed: %v", err)
		}
		if b.Status != models.BookingStatusConfirmed {
			t.Fatalf("expected confirmed, got %s", b.Status)
		}
		if f.scheduler.count() != 0 {
			t.Fatalf("expected no tasks after failed enqueues, got %d", f.scheduler.count())
		}

		if _, err := f.machine.Confirm(ctx, "bk-1"); err != nil {
			t.Fatalf("second confirm failed: %v", err)
		}
		if f.scheduler.count() != 2 {
			t.Fatalf("expected retry to schedule both tasks, got %d", f.scheduler.count())
		}
	})

	t.Run("rejects confirm without verified payment", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)

		_, err := f.machine.Confirm(ctx, "bk-1")
		assertStateTransitionError(t, err)
	})

	t.Run("rejects confirm of a cancelled booking", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusCancelled, models.PaymentStatusSuccess)

		_, err := f.machine.Confirm(ctx, "bk-1")
		assertStateTransitionError(t, err)
	})
}

func TestBookingStateMachine_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("cancels a provisional booking", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)

		b, err := f.machine.Cancel(ctx, "bk-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != models.BookingStatusCancelled {
			t.Fatalf("expected cancelled, got %s", b.Status)
		}
	})

	t.Run("cancels a confirmed booking", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusConfirmed, models.PaymentStatusSuccess)

		b, err := f.machine.Cancel(ctx, "bk-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != models.BookingStatusCancelled {
			t.Fatalf("expected cancelled, got %s", b.Status)
		}
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)

		f.machine.Cancel(ctx, "bk-1")
		b, err := f.machine.Cancel(ctx, "bk-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != models.BookingStatusCancelled {
			t.Fatalf("expected cancelled, got %s", b.Status)
		}
	})
}

func TestBookingStateMachine_Reschedule(t *testing.T) {
	ctx := context.Background()
	future := fixedNow.Add(48 * time.Hour)

	t.Run("moves the appointment and keeps status", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)

		b, err := f.machine.Reschedule(ctx, "bk-1", future, "Silver Package")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !b.DateTime.Equal(future) {
			t.Fatalf("expected %v, got %v", future, b.DateTime)
		}
		if b.Service != "Silver Package" {
			t.Fatalf("expected service update, got %s", b.Service)
		}
		if b.Status != models.BookingStatusProvisional {
			t.Fatalf("reschedule must not change status, got %s", b.Status)
		}
	})

	t.Run("rejects past dates for provisional bookings", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)

		_, err := f.machine.Reschedule(ctx, "bk-1", fixedNow.Add(-time.Hour), "")
		assertValidationError(t, err)
	})

	t.Run("rejects past dates for confirmed bookings", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusConfirmed, models.PaymentStatusSuccess)

		_, err := f.machine.Reschedule(ctx, "bk-1", fixedNow.Add(-time.Hour), "")
		assertValidationError(t, err)
	})

	t.Run("rejects all reschedules of cancelled bookings", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusCancelled, models.PaymentStatusPending)

		_, err := f.machine.Reschedule(ctx, "bk-1", future, "")
		assertStateTransitionError(t, err)
	})

	t.Run("warns but allows a slot held by another booking", func(t *testing.T) {
		f := newMachineFixture()
		f.seedBooking(models.BookingStatusProvisional, models.PaymentStatusPending)
		f.repo.CreateBooking(&models.Booking{
			ID:       "bk-2",
			Status:   models.BookingStatusConfirmed,
			DateTime: future,
		})

		b, err := f.machine.Reschedule(ctx, "bk-1", future, "")
		if err != nil {
			t.Fatalf("expected soft conflict to be allowed, got %v", err)
		}
		if !b.DateTime.Equal(future) {
			t.Fatalf("expected %v, got %v", future, b.DateTime)
		}
		if f.repo.findActiveCalls != 1 {
			t.Fatalf("expected slot occupancy check, got %d calls", f.repo.findActiveCalls)
		}
	})

	t.Run("re-resolves availability for the new slot", func(t *testing.T) {
		f := newMachineFixture()
		client := &fakeAvailClient{err: errors.New("down")}
		f.machine.Resolver = &AvailabilityResolver{Client: client}
		f.seedBooking(models.BookingStatusConfirmed, models.PaymentStatusSuccess)

		if _, err := f.machine.Reschedule(ctx, "bk-1", future, ""); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if client.calls != 1 {
			t.Fatalf("expected availability re-resolution, got %d calls", client.calls)
		}
	})
}

func assertStateTransitionError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a state transition error, got nil")
	}
	var transitionErr *StateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected StateTransitionError, got %T: %v", err, err)
	}
}
