package models

// BookingDraft is an uncommitted, customer-scoped booking selection.
// At most one live draft exists per customer; every edit overwrites it.
type BookingDraft struct {
	CustomerID     string `json:"customerId"`
	Service        string `json:"service,omitempty"`
	PackageID      string `json:"packageId,omitempty"`
	DateTimeISO    string `json:"dateTimeIso,omitempty"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
}

// DraftPatch carries partial draft updates; empty fields leave the
// existing draft value untouched.
type DraftPatch struct {
	Service        string `json:"service,omitempty"`
	PackageID      string `json:"packageId,omitempty"`
	DateTimeISO    string `json:"dateTimeIso,omitempty"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientPhone string `json:"recipientPhone,omitempty"`
}
