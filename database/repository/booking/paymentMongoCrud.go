package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"glowdesk/models"

	"go.mongodb.org/mongo-driver/bson"
)

// CreatePaymentAttempt inserts a new payment attempt document.
func (repo *MongoBookingRepo) CreatePaymentAttempt(attempt *models.PaymentAttempt) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.paymentColl.InsertOne(ctx, attempt)
	if err != nil {
		return fmt.Errorf("error creating payment attempt: %w", err)
	}
	return nil
}

// GetPaymentAttempt retrieves a payment attempt by checkout handle.
func (repo *MongoBookingRepo) GetPaymentAttempt(ctx context.Context, checkoutID string) (*models.PaymentAttempt, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var attempt models.PaymentAttempt
	err := repo.paymentColl.FindOne(ctxWithTimeout, bson.M{"checkout_request_id": checkoutID}).Decode(&attempt)
	if err != nil {
		return nil, fmt.Errorf("payment attempt not found: %w", err)
	}
	return &attempt, nil
}

// UpdatePaymentAttemptStatus records the latest gateway-reported status.
func (repo *MongoBookingRepo) UpdatePaymentAttemptStatus(checkoutID, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"checkout_request_id": checkoutID}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}}
	_, err := repo.paymentColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error updating payment attempt %s: %w", checkoutID, err)
	}
	return nil
}
