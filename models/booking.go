package models

import "time"

// Booking statuses. Confirmed and cancelled are terminal with respect to
// payment reconciliation: a cancelled booking is never resurrected by a
// late payment callback.
const (
	BookingStatusProvisional = "provisional"
	BookingStatusConfirmed   = "confirmed"
	BookingStatusCancelled   = "cancelled"
)

// Booking represents an appointment booking record.
type Booking struct {
	ID                string    `bson:"id" json:"id"`
	CustomerID        string    `bson:"customer_id" json:"customerId"`
	Service           string    `bson:"service" json:"service"`
	PackageID         string    `bson:"package_id,omitempty" json:"packageId,omitempty"`
	DateTime          time.Time `bson:"date_time" json:"dateTime"`
	Amount            float64   `bson:"amount" json:"amount"`
	RecipientName     string    `bson:"recipient_name" json:"recipientName"`
	RecipientPhone    string    `bson:"recipient_phone" json:"recipientPhone"`
	Status            string    `bson:"status" json:"status"`
	CheckoutRequestID string    `bson:"checkout_request_id,omitempty" json:"checkoutRequestId,omitempty"`
	CalendarSyncID    string    `bson:"calendar_sync_id,omitempty" json:"calendarSyncId,omitempty"`
	CreatedAt         time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updatedAt"`
}

// Terminal reports whether the booking status admits no further
// payment-driven transitions.
func (b *Booking) Terminal() bool {
	return b.Status == BookingStatusConfirmed || b.Status == BookingStatusCancelled
}
