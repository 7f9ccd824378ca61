package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"glowdesk/config"
	bookingRepo "glowdesk/database/repository/booking"
	"glowdesk/models"
	"glowdesk/utils"

	"go.uber.org/zap"
)

// FlowResult is returned to the dashboard immediately after a draft is
// completed; confirmation continues in the background watcher.
type FlowResult struct {
	Message           string `json:"message"`
	CheckoutRequestID string `json:"checkoutRequestId"`
	BookingID         string `json:"bookingId"`
}

// BookingFlow runs the draft-to-confirmation pipeline: commit draft,
// initiate payment, watch the payment status, reconcile booking state.
type BookingFlow interface {
	CompleteDraft(ctx context.Context, customerID string) (*FlowResult, error)
	Reconcile(ctx context.Context, checkoutID string) error
	StopWatch(checkoutID string)
	StopAll()
}

// DefaultBookingFlow wires the workflow stages together. Stages within one
// flow run strictly sequentially; flows for different customers are fully
// independent.
type DefaultBookingFlow struct {
	Drafts    *DraftManager
	Initiator *PaymentInitiator
	Poller    *PaymentStatusPoller
	Machine   *BookingStateMachine
	Repo      bookingRepo.BookingRepository
	Alerts    AlertSender

	// FailedPaymentPolicy decides what a terminal gateway failure does to
	// the booking: cancel it, or retain it provisional for manual retry.
	FailedPaymentPolicy string

	// WatchBudget caps the detached reconcile context; it slightly exceeds
	// Interval*MaxAttempts so the poller, not the context, ends the run.
	WatchBudget time.Duration

	mu       sync.Mutex
	watchers map[string]context.CancelFunc
}

// CompleteDraft commits the customer's draft and triggers the mobile-money
// push. On success it spawns the status watcher and returns the checkout
// handle at once; the caller does not wait for confirmation. Any initiation
// failure aborts the whole flow with no booking record behind it.
func (f *DefaultBookingFlow) CompleteDraft(ctx context.Context, customerID string) (*FlowResult, error) {
	draft, err := f.Drafts.CommitDraft(ctx, customerID)
	if err != nil {
		return nil, err
	}

	bookingRecord, _, err := f.Initiator.Initiate(ctx, draft)
	if err != nil {
		return nil, err
	}

	// The draft has served its purpose; clear it so the next booking for
	// this customer starts clean.
	if err := f.Drafts.Store.Delete(ctx, customerID); err != nil {
		utils.GetLogger().Warn("failed to clear committed draft",
			zap.String("customerID", customerID), zap.Error(err))
	}

	f.startWatch(bookingRecord.CheckoutRequestID)

	return &FlowResult{
		Message:           "Payment prompt sent. Awaiting confirmation.",
		CheckoutRequestID: bookingRecord.CheckoutRequestID,
		BookingID:         bookingRecord.ID,
	}, nil
}

// startWatch runs Reconcile in a detached goroutine with its own context so
// the watcher outlives the originating HTTP request but never outlives its
// budget or an explicit StopWatch.
func (f *DefaultBookingFlow) startWatch(checkoutID string) {
	ctx, cancel := context.WithTimeout(context.Background(), f.WatchBudget)

	f.mu.Lock()
	if f.watchers == nil {
		f.watchers = make(map[string]context.CancelFunc)
	}
	f.watchers[checkoutID] = cancel
	f.mu.Unlock()

	go func() {
		defer func() {
			cancel()
			f.mu.Lock()
			delete(f.watchers, checkoutID)
			f.mu.Unlock()
		}()
		if err := f.Reconcile(ctx, checkoutID); err != nil && !errors.Is(err, context.Canceled) {
			utils.GetLogger().Info("payment watch ended without confirmation",
				zap.String("checkoutRequestID", checkoutID), zap.Error(err))
		}
	}()
}

// StopWatch cancels the running watcher for a checkout handle, if any. Used
// when the operator cancels the booking or abandons the flow; the poller
// must stop issuing requests.
func (f *DefaultBookingFlow) StopWatch(checkoutID string) {
	f.mu.Lock()
	cancel, ok := f.watchers[checkoutID]
	f.mu.Unlock()
	if ok {
		cancel()
	}
}

// StopAll cancels every running watcher; called on server shutdown.
func (f *DefaultBookingFlow) StopAll() {
	f.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(f.watchers))
	for _, cancel := range f.watchers {
		cancels = append(cancels, cancel)
	}
	f.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Reconcile polls the payment to a terminal status and applies the outcome
// to the booking.
func (f *DefaultBookingFlow) Reconcile(ctx context.Context, checkoutID string) error {
	logger := utils.GetLogger()

	status, err := f.Poller.Poll(ctx, checkoutID)
	if err != nil {
		var timeoutErr *PollingTimeoutError
		if errors.As(err, &timeoutErr) {
			// Expected with mobile-money latency: booking stays provisional,
			// operator verifies manually. Informational, not an error.
			f.alert(ctx, "Payment still pending",
				"No confirmation within the polling window. Check the payment status manually.",
				map[string]string{"checkoutRequestId": checkoutID})
		}
		return err
	}

	bookingRecord, err := f.Repo.GetBookingByCheckoutID(ctx, checkoutID)
	if err != nil {
		return err
	}

	if models.PaymentSettled(status) {
		_, err := f.Machine.Confirm(ctx, bookingRecord.ID)
		return err
	}

	// Terminal failure.
	f.alert(ctx, "Payment failed",
		"The mobile-money payment was declined or failed.",
		map[string]string{"checkoutRequestId": checkoutID, "bookingId": bookingRecord.ID})

	if f.FailedPaymentPolicy == config.FailedPaymentCancel {
		_, err := f.Machine.Cancel(ctx, bookingRecord.ID)
		return err
	}
	logger.Info("payment failed, booking retained for manual retry",
		zap.String("bookingID", bookingRecord.ID))
	return nil
}

func (f *DefaultBookingFlow) alert(ctx context.Context, title, body string, data map[string]string) {
	if f.Alerts == nil {
		return
	}
	if err := f.Alerts.NotifyOperator(ctx, title, body, data); err != nil {
		utils.GetLogger().Warn("operator alert failed", zap.Error(err))
	}
}
