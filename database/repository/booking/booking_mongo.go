package bookingRepo

import (
	"glowdesk/database"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	paymentColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("glowdesk")
	return &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		paymentColl: db.Collection("payment_attempts"),
	}
}
