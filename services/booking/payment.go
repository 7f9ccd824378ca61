package booking

import (
	"context"
	"time"

	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/gateway/mpesa"
	"glowdesk/models"
	"glowdesk/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentInitiator triggers the mobile-money push for a committed draft and
// creates the provisional booking behind it.
type PaymentInitiator struct {
	Gateway mpesa.Gateway
	Repo    bookingRepo.BookingRepository
	Amount  float64
}

// Initiate pushes an STK prompt to the recipient's phone. A gateway reply
// without a CheckoutRequestID is fatal: nothing is persisted, so no partial
// state can ever be promoted to provisional. On success the booking is
// created as provisional, linked to the checkout handle, together with its
// pending payment attempt.
func (p *PaymentInitiator) Initiate(ctx context.Context, draft *models.BookingDraft) (*models.Booking, *models.PaymentAttempt, error) {
	logger := utils.GetLogger()

	dateTime, err := time.Parse(time.RFC3339, draft.DateTimeISO)
	if err != nil {
		return nil, nil, NewValidationError("selected date/time is not a valid timestamp")
	}

	reference := "GD-" + draft.CustomerID
	pushResp, err := p.Gateway.STKPush(ctx, draft.RecipientPhone, p.Amount, reference)
	if err != nil {
		return nil, nil, NewPaymentInitiationError("payment gateway request failed", err)
	}
	if pushResp.CheckoutRequestID == "" {
		logger.Error("stk push returned no checkout handle",
			zap.String("customerID", draft.CustomerID))
		return nil, nil, NewPaymentInitiationError("payment gateway returned no checkout handle", nil)
	}

	now := time.Now()
	bookingRecord := &models.Booking{
		ID:                uuid.New().String(),
		CustomerID:        draft.CustomerID,
		Service:           draft.Service,
		PackageID:         draft.PackageID,
		DateTime:          dateTime,
		Amount:            p.Amount,
		RecipientName:     draft.RecipientName,
		RecipientPhone:    draft.RecipientPhone,
		Status:            models.BookingStatusProvisional,
		CheckoutRequestID: pushResp.CheckoutRequestID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := p.Repo.CreateBooking(bookingRecord); err != nil {
		return nil, nil, NewPaymentInitiationError("failed to persist provisional booking", err)
	}

	attempt := &models.PaymentAttempt{
		CheckoutRequestID: pushResp.CheckoutRequestID,
		BookingID:         bookingRecord.ID,
		Status:            models.PaymentStatusPending,
		Amount:            p.Amount,
		Phone:             draft.RecipientPhone,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := p.Repo.CreatePaymentAttempt(attempt); err != nil {
		// The attempt record gates confirmation; a booking without one could
		// never leave provisional. Roll the booking back and fail initiation.
		logger.Error("failed to persist payment attempt, rolling back booking",
			zap.String("checkoutRequestID", attempt.CheckoutRequestID), zap.Error(err))
		if delErr := p.Repo.DeleteBooking(bookingRecord.ID); delErr != nil {
			logger.Error("failed to roll back provisional booking",
				zap.String("bookingID", bookingRecord.ID), zap.Error(delErr))
		}
		return nil, nil, NewPaymentInitiationError("failed to persist payment attempt", err)
	}

	logger.Info("payment initiated",
		zap.String("bookingID", bookingRecord.ID),
		zap.String("checkoutRequestID", pushResp.CheckoutRequestID))
	return bookingRecord, attempt, nil
}
