package routes

import (
	"glowdesk/handlers"
	"glowdesk/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers all endpoints for the booking workflow.
func RegisterBookingRoutes(r *gin.Engine, h *handlers.BookingHandler) {
	api := r.Group("/api")
	api.Use(middleware.AdminAuthMiddleware())
	{
		api.POST("/bookings/draft/:customerId", h.UpsertDraft)
		api.POST("/bookings/complete-draft/:customerId", h.CompleteDraft)
		api.GET("/mpesa/status/:checkoutRequestId", h.PaymentStatus)
		api.GET("/bookings/available-hours/:date", h.AvailableHours)

		api.GET("/bookings", h.ListBookings)
		api.GET("/bookings/:id", h.GetBooking)
		api.POST("/bookings/:id/confirm", h.ConfirmBooking)
		api.POST("/bookings/:id/cancel", h.CancelBooking)
		api.PUT("/bookings/:id", h.RescheduleBooking)
		api.POST("/bookings/:id/invoice", h.GenerateInvoice)

		api.POST("/calendar/sync", h.SyncCalendar)
	}
}
