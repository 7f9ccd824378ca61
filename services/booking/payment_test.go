package booking

import (
	"context"
	"errors"
	"testing"

	"glowdesk/models"
)

func initiationDraft() *models.BookingDraft {
	return &models.BookingDraft{
		CustomerID:     "cust-1",
		Service:        "Gold Package",
		DateTimeISO:    "2025-03-10T10:00:00Z",
		RecipientName:  "Wanjiku",
		RecipientPhone: "254712345678",
	}
}

func TestPaymentInitiator_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a provisional booking with a pending attempt", func(t *testing.T) {
		repo := newFakeBookingRepo()
		p := &PaymentInitiator{Gateway: &fakeGateway{}, Repo: repo, Amount: 500}

		b, attempt, err := p.Initiate(ctx, initiationDraft())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.Status != models.BookingStatusProvisional {
			t.Fatalf("expected provisional booking, got %s", b.Status)
		}
		if b.CheckoutRequestID != "ws_1" || attempt.CheckoutRequestID != "ws_1" {
			t.Fatalf("booking and attempt must share the checkout handle: %s vs %s",
				b.CheckoutRequestID, attempt.CheckoutRequestID)
		}
		if attempt.Status != models.PaymentStatusPending {
			t.Fatalf("expected pending attempt, got %s", attempt.Status)
		}
	})

	t.Run("rolls back the booking when the attempt record fails to write", func(t *testing.T) {
		repo := newFakeBookingRepo()
		repo.failCreateAttempt = errors.New("write concern error")
		p := &PaymentInitiator{Gateway: &fakeGateway{}, Repo: repo, Amount: 500}

		_, _, err := p.Initiate(ctx, initiationDraft())
		var initiationErr *PaymentInitiationError
		if !errors.As(err, &initiationErr) {
			t.Fatalf("expected PaymentInitiationError, got %v", err)
		}

		// No provisional booking may survive without its confirmation gate.
		bookings, _ := repo.ListBookings(ctx)
		if len(bookings) != 0 {
			t.Fatalf("expected booking rollback, found %d bookings", len(bookings))
		}
	})
}
