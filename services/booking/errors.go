package booking

import "fmt"

// ValidationError reports missing or invalid draft fields. It is raised
// locally, before any network call.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(msg string) error {
	return &ValidationError{
		Code:    "validationError",
		Message: msg,
	}
}

// PaymentInitiationError means the gateway did not return a checkout handle.
// Fatal to the flow: no booking record may exist behind it.
type PaymentInitiationError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentInitiationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PaymentInitiationError) Unwrap() error {
	return e.Err
}

func NewPaymentInitiationError(msg string, cause error) error {
	return &PaymentInitiationError{
		Code:    "paymentInitiationError",
		Message: msg,
		Err:     cause,
	}
}

// PollingTimeoutError means the polling budget ran out without a terminal
// payment status. Not a failure: the booking stays provisional and the
// operator checks manually.
type PollingTimeoutError struct {
	Code              string
	CheckoutRequestID string
	Attempts          int
}

func (e *PollingTimeoutError) Error() string {
	return fmt.Sprintf("%s: no terminal payment status for %s after %d attempts",
		e.Code, e.CheckoutRequestID, e.Attempts)
}

func NewPollingTimeoutError(checkoutID string, attempts int) error {
	return &PollingTimeoutError{
		Code:              "pollingTimeout",
		CheckoutRequestID: checkoutID,
		Attempts:          attempts,
	}
}

// StateTransitionError reports a confirm/cancel/reschedule rejected against
// the booking's current state. The booking is left unchanged.
type StateTransitionError struct {
	Code    string
	Message string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewStateTransitionError(msg string) error {
	return &StateTransitionError{
		Code:    "stateTransitionError",
		Message: msg,
	}
}
