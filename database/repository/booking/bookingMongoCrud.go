package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"glowdesk/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateBooking inserts a new booking document.
func (repo *MongoBookingRepo) CreateBooking(booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.bookingColl.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetBookingByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetBookingByID(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"id": bookingID}).Decode(&booking)
	if err != nil {
		return nil, fmt.Errorf("booking not found: %w", err)
	}
	return &booking, nil
}

// GetBookingByCheckoutID retrieves the booking linked to a checkout handle.
func (repo *MongoBookingRepo) GetBookingByCheckoutID(ctx context.Context, checkoutID string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, bson.M{"checkout_request_id": checkoutID}).Decode(&booking)
	if err != nil {
		return nil, fmt.Errorf("booking for checkout %s not found: %w", checkoutID, err)
	}
	return &booking, nil
}

// DeleteBooking removes a booking document. Used to roll back a provisional
// booking whose payment attempt record failed to write.
func (repo *MongoBookingRepo) DeleteBooking(bookingID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.bookingColl.DeleteOne(ctx, bson.M{"id": bookingID})
	if err != nil {
		return fmt.Errorf("error deleting booking %s: %w", bookingID, err)
	}
	return nil
}

// UpdateBookingStatus sets the booking status and bumps updated_at.
func (repo *MongoBookingRepo) UpdateBookingStatus(bookingID, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	_, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating booking %s status: %w", bookingID, err)
	}
	return nil
}

// SetBookingSchedule updates the appointment time (and optionally service)
// of a booking, used by reschedule.
func (repo *MongoBookingRepo) SetBookingSchedule(bookingID string, dateTime time.Time, service string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	set := bson.M{"date_time": dateTime, "updated_at": time.Now()}
	if service != "" {
		set["service"] = service
	}
	filter := bson.M{"id": bookingID}
	_, err := repo.bookingColl.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error rescheduling booking %s: %w", bookingID, err)
	}
	return nil
}

// SetCalendarSyncID records the external calendar event ID for a booking.
func (repo *MongoBookingRepo) SetCalendarSyncID(bookingID, syncID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID}
	update := bson.M{"$set": bson.M{"calendar_sync_id": syncID, "updated_at": time.Now()}}
	_, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error setting calendar sync id for booking %s: %w", bookingID, err)
	}
	return nil
}
