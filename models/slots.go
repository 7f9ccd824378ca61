package models

import "time"

// AvailabilitySlot is one bookable time for a given date and service.
// Slots are ephemeral: recomputed on every availability query, never stored.
type AvailabilitySlot struct {
	Time      time.Time `json:"time"`
	Available bool      `json:"available"`
}
