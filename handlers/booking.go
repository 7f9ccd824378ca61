package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/gateway/mpesa"
	"glowdesk/models"
	"glowdesk/services/booking"
	"glowdesk/utils"

	"github.com/gin-gonic/gin"
)

// BookingHandler exposes the booking workflow to the dashboard.
type BookingHandler struct {
	Drafts     *booking.DraftManager
	Flow       booking.BookingFlow
	Machine    *booking.BookingStateMachine
	Resolver   *booking.AvailabilityResolver
	Dispatcher *booking.SideEffectDispatcher
	Repo       bookingRepo.BookingRepository
	Gateway    mpesa.Gateway
}

func NewBookingHandler(
	drafts *booking.DraftManager,
	flow booking.BookingFlow,
	machine *booking.BookingStateMachine,
	resolver *booking.AvailabilityResolver,
	dispatcher *booking.SideEffectDispatcher,
	repo bookingRepo.BookingRepository,
	gateway mpesa.Gateway,
) *BookingHandler {
	return &BookingHandler{
		Drafts:     drafts,
		Flow:       flow,
		Machine:    machine,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Repo:       repo,
		Gateway:    gateway,
	}
}

// bookingError maps workflow errors onto HTTP statuses.
func bookingError(c *gin.Context, err error) {
	var validationErr *booking.ValidationError
	var initiationErr *booking.PaymentInitiationError
	var transitionErr *booking.StateTransitionError

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusUnprocessableEntity, "Validation failed", validationErr.Message)
	case errors.As(err, &initiationErr):
		utils.JSONError(c, http.StatusBadGateway, "Payment initiation failed", initiationErr.Message)
	case errors.As(err, &transitionErr):
		utils.JSONError(c, http.StatusConflict, "Invalid booking transition", transitionErr.Message)
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

// UpsertDraft merges a partial draft update for a customer.
func (h *BookingHandler) UpsertDraft(c *gin.Context) {
	customerID := c.Param("customerId")
	var patch models.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	draft, err := h.Drafts.UpsertDraft(c.Request.Context(), customerID, patch)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// CompleteDraft commits the draft and triggers the mobile-money push.
func (h *BookingHandler) CompleteDraft(c *gin.Context) {
	customerID := c.Param("customerId")

	result, err := h.Flow.CompleteDraft(c.Request.Context(), customerID)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PaymentStatus reports the reconciliation state of a checkout handle. While
// the attempt is still pending it also asks the gateway for a fresh reading.
func (h *BookingHandler) PaymentStatus(c *gin.Context) {
	checkoutID := c.Param("checkoutRequestId")
	ctx := c.Request.Context()

	attempt, err := h.Repo.GetPaymentAttempt(ctx, checkoutID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "payment attempt not found", err.Error())
		return
	}

	if attempt.Status == models.PaymentStatusPending && h.Gateway != nil {
		if resp, err := h.Gateway.QueryStatus(ctx, checkoutID); err == nil && resp.Status != "" {
			if resp.Status != attempt.Status {
				if err := h.Repo.UpdatePaymentAttemptStatus(checkoutID, resp.Status); err == nil {
					attempt.Status = resp.Status
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  attempt.Status,
		"payment": attempt,
	})
}

// AvailableHours returns the bookable slots for a date, falling back to the
// synthetic grid when the availability service is down or empty.
func (h *BookingHandler) AvailableHours(c *gin.Context) {
	date := c.Param("date")
	service := c.Query("service")

	slots := h.Resolver.Resolve(c.Request.Context(), date, service)
	c.JSON(http.StatusOK, slots)
}

// ConfirmBooking manually confirms a provisional booking. Idempotent.
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	bookingID := c.Param("id")

	b, err := h.Machine.Confirm(c.Request.Context(), bookingID)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking cancels a provisional or confirmed booking and stops any
// payment watcher still running for it.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID := c.Param("id")
	ctx := c.Request.Context()

	b, err := h.Machine.Cancel(ctx, bookingID)
	if err != nil {
		bookingError(c, err)
		return
	}
	if b.CheckoutRequestID != "" {
		h.Flow.StopWatch(b.CheckoutRequestID)
	}
	c.JSON(http.StatusOK, b)
}

// RescheduleBooking moves a booking to a new date/time.
func (h *BookingHandler) RescheduleBooking(c *gin.Context) {
	bookingID := c.Param("id")
	var input struct {
		DateTime string `json:"dateTime" binding:"required"`
		Service  string `json:"service"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	newDateTime, err := time.Parse(time.RFC3339, input.DateTime)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid dateTime", err.Error())
		return
	}

	b, err := h.Machine.Reschedule(c.Request.Context(), bookingID, newDateTime, input.Service)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GenerateInvoice builds an invoice for a confirmed booking on explicit
// operator request.
func (h *BookingHandler) GenerateInvoice(c *gin.Context) {
	bookingID := c.Param("id")
	ctx := c.Request.Context()

	b, err := h.Repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", err.Error())
		return
	}
	invoice, err := h.Dispatcher.BuildInvoice(b)
	if err != nil {
		bookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

// SyncCalendar runs the batch calendar sync over confirmed bookings lacking
// a calendar event.
func (h *BookingHandler) SyncCalendar(c *gin.Context) {
	// Detached context: the scan may outlast an impatient dashboard request.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	synced, skipped, err := h.Dispatcher.SyncCalendar(ctx)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "calendar sync failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": synced, "skipped": skipped})
}

// ListBookings returns all bookings for the dashboard table.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	bookings, err := h.Repo.ListBookings(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to list bookings", err.Error())
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, bookings)
}

// GetBooking returns one booking by ID.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Repo.GetBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.JSONError(c, http.StatusNotFound, "booking not found", err.Error())
		return
	}
	c.JSON(http.StatusOK, b)
}
