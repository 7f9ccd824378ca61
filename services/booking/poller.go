package booking

import (
	"context"
	"time"

	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/gateway/mpesa"
	"glowdesk/models"
	"glowdesk/utils"

	"go.uber.org/zap"
)

// PaymentStatusPoller watches one checkout handle until the gateway reports
// a terminal status or the attempt budget runs out. Each run is independent
// and keyed by its own handle; runs for different bookings share nothing.
type PaymentStatusPoller struct {
	Gateway     mpesa.Gateway
	Repo        bookingRepo.BookingRepository
	Interval    time.Duration
	MaxAttempts int
}

// Poll issues at most MaxAttempts status queries, one per Interval, strictly
// sequentially. It returns the first terminal status seen. A malformed
// response (no status field) aborts the loop rather than spinning. Exhausting
// the budget returns a PollingTimeoutError: the booking stays provisional
// and the operator checks manually, which is an expected outcome given
// mobile-money confirmation latency. Cancelling ctx stops the loop before
// its next request.
func (p *PaymentStatusPoller) Poll(ctx context.Context, checkoutID string) (string, error) {
	logger := utils.GetLogger()

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(p.Interval):
		}

		resp, err := p.Gateway.QueryStatus(ctx, checkoutID)
		if err != nil {
			// Transient query failures consume an attempt but do not end
			// the run; the next tick retries.
			logger.Warn("payment status query failed",
				zap.String("checkoutRequestID", checkoutID),
				zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		if resp.Status == "" {
			logger.Error("payment status response missing status field, aborting poll",
				zap.String("checkoutRequestID", checkoutID), zap.Int("attempt", attempt))
			return "", NewPollingTimeoutError(checkoutID, attempt)
		}

		if err := p.Repo.UpdatePaymentAttemptStatus(checkoutID, resp.Status); err != nil {
			logger.Warn("failed to record payment attempt status",
				zap.String("checkoutRequestID", checkoutID), zap.Error(err))
		}

		if models.PaymentTerminal(resp.Status) {
			logger.Info("payment reached terminal status",
				zap.String("checkoutRequestID", checkoutID),
				zap.String("status", resp.Status), zap.Int("attempt", attempt))
			return resp.Status, nil
		}
	}

	return "", NewPollingTimeoutError(checkoutID, p.MaxAttempts)
}
