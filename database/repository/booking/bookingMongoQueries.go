package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"glowdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ListBookings returns all bookings, newest first.
func (repo *MongoBookingRepo) ListBookings(ctx context.Context) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	for cursor.Next(ctxWithTimeout) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

// FindActiveBookingAt returns the non-cancelled booking occupying the given
// time, if any. A slot backs at most one non-cancelled booking.
func (repo *MongoBookingRepo) FindActiveBookingAt(ctx context.Context, dateTime time.Time) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"date_time": dateTime,
		"status":    bson.M{"$ne": models.BookingStatusCancelled},
	}
	var booking models.Booking
	err := repo.bookingColl.FindOne(ctxWithTimeout, filter).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error querying slot occupancy: %w", err)
	}
	return &booking, nil
}

// FindConfirmedWithoutCalendarSync returns confirmed bookings that have not
// yet been pushed to the external calendar.
func (repo *MongoBookingRepo) FindConfirmedWithoutCalendarSync(ctx context.Context) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status": models.BookingStatusConfirmed,
		"$or": []bson.M{
			{"calendar_sync_id": bson.M{"$exists": false}},
			{"calendar_sync_id": ""},
		},
	}
	cursor, err := repo.bookingColl.Find(ctxWithTimeout, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying unsynced bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	for cursor.Next(ctxWithTimeout) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}
