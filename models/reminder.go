package models

// Reminder kinds queued by the side-effect dispatcher.
const (
	ReminderKindUpcoming = "reminder"
	ReminderKindFollowUp = "followup"
)

// ReminderPayload is the asynq task payload for booking reminders and
// post-appointment follow-ups.
type ReminderPayload struct {
	ReminderID string `json:"reminderId"`
	BookingID  string `json:"bookingId"`
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	FireDate   string `json:"fireDate"`
}
