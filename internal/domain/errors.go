package domain

import (
	"errors"

	"github.com/google/uuid"
)

// ValidationError reports an order that failed a structural check.
// It is terminal for the order: the worker drops it and nothing is retried.
type ValidationError struct {
	OrderID uuid.UUID
	Err     error
}

func (e *ValidationError) Error() string {
	return "order " + e.OrderID.String() + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err for the given order.
func NewValidationError(orderID uuid.UUID, err error) *ValidationError {
	return &ValidationError{OrderID: orderID, Err: err}
}

// IsValidationFailure checks if an error came from order validation
func IsValidationFailure(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrInvalidCard is returned when a card number fails the length or range rule.
	ErrInvalidCard = errors.New("invalid card number")

	// ErrNoSubscribers is returned when a price cut is published to an empty registry.
	ErrNoSubscribers = errors.New("no price cut subscribers")

	// ErrEmptyRetrieval marks a zero order coming out of the buffer. Never expected.
	ErrEmptyRetrieval = errors.New("empty retrieval")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)
