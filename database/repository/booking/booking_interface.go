package bookingRepo

import (
	"context"
	"time"

	"glowdesk/models"
)

// BookingRepository defines data access for bookings and payment attempts.
type BookingRepository interface {
	CreateBooking(booking *models.Booking) error
	DeleteBooking(bookingID string) error
	GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBookingByCheckoutID(ctx context.Context, checkoutID string) (*models.Booking, error)
	UpdateBookingStatus(bookingID, status string) error
	SetBookingSchedule(bookingID string, dateTime time.Time, service string) error
	SetCalendarSyncID(bookingID, syncID string) error
	ListBookings(ctx context.Context) ([]models.Booking, error)
	FindActiveBookingAt(ctx context.Context, dateTime time.Time) (*models.Booking, error)
	FindConfirmedWithoutCalendarSync(ctx context.Context) ([]models.Booking, error)

	CreatePaymentAttempt(attempt *models.PaymentAttempt) error
	GetPaymentAttempt(ctx context.Context, checkoutID string) (*models.PaymentAttempt, error)
	UpdatePaymentAttemptStatus(checkoutID, status string) error
}
