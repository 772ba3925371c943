package domain

import (
	"errors"
	"fmt"
)

// RetriableError defines an interface for errors that can be retried
type RetriableError interface {
	error
	IsRetriable() bool
}

// IsRetriable checks if an error is retriable
func IsRetriable(err error) bool {
	var re RetriableError
	if errors.As(err, &re) {
		return re.IsRetriable()
	}
	return false
}

// InvalidOrderError is returned when an order is rejected at submission.
// The order never enters a book. Never retriable: the order itself is bad.
type InvalidOrderError struct {
	OrderID string
	Reason  string
}

func (e *InvalidOrderError) Error() string {
	return fmt.Sprintf("invalid order [%s]: %s", e.OrderID, e.Reason)
}

func (e *InvalidOrderError) IsRetriable() bool {
	return false
}

// SubmitError represents a transient submission failure against a venue.
// Usually retriable; the strategy decides whether to retry or unwind.
type SubmitError struct {
	OrderID   string
	Err       error
	Retriable bool
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit order [%s]: %v", e.OrderID, e.Err)
}

func (e *SubmitError) IsRetriable() bool {
	return e.Retriable
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// NewSubmitError creates a retriable submission error
func NewSubmitError(orderID string, err error) *SubmitError {
	return &SubmitError{OrderID: orderID, Err: err, Retriable: true}
}

// ConfigError represents a configuration error (never retriable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) IsRetriable() bool {
	return false
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrDuplicateOrder is returned when an order ID is already booked.
	ErrDuplicateOrder = errors.New("duplicate order id")

	// ErrUnknownOrder marks a cancel for an ID not present in any book.
	// Cancels are idempotent, so callers normally ignore it.
	ErrUnknownOrder = errors.New("unknown order")

	// ErrStaleTick is returned when a tick arrives out of timestamp order.
	ErrStaleTick = errors.New("stale tick")

	// ErrConfigNotFound is returned when the configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
