package models

import "time"

// Payment attempt statuses as reported by the M-Pesa gateway.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
)

// PaymentTerminal reports whether a gateway status ends the polling loop.
func PaymentTerminal(status string) bool {
	return PaymentSettled(status) || status == PaymentStatusFailed
}

// PaymentSettled reports whether a gateway status counts as verified payment.
func PaymentSettled(status string) bool {
	return status == PaymentStatusSuccess || status == PaymentStatusConfirmed
}

// PaymentAttempt tracks one STK push and its reconciliation state.
// Exactly one attempt drives one booking's confirmation.
type PaymentAttempt struct {
	CheckoutRequestID string    `bson:"checkout_request_id" json:"checkoutRequestId"`
	BookingID         string    `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	Status            string    `bson:"status" json:"status"`
	Amount            float64   `bson:"amount" json:"amount"`
	Phone             string    `bson:"phone" json:"phone"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}
