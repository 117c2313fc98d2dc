package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestValidationError(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	t.Run("message and unwrap", func(t *testing.T) {
		err := NewValidationError(id, ErrInvalidCard)

		want := "order 6ba7b810-9dad-11d1-80b4-00c04fd430c8: invalid card number"
		if err.Error() != want {
			t.Errorf("Error message = %q, want %q", err.Error(), want)
		}

		if !errors.Is(err, ErrInvalidCard) {
			t.Error("Expected error to wrap ErrInvalidCard")
		}
	})

	t.Run("IsValidationFailure helper", func(t *testing.T) {
		wrapped := fmt.Errorf("worker: %w", NewValidationError(id, ErrInvalidCard))
		plain := errors.New("plain error")

		if !IsValidationFailure(wrapped) {
			t.Error("IsValidationFailure should see through wrapping")
		}

		if IsValidationFailure(plain) {
			t.Error("IsValidationFailure should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("must be positive")
	err := &ConfigError{Field: "buffer.capacity", Err: baseErr}

	expected := "config error [buffer.capacity]: must be positive"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if !errors.Is(err, baseErr) {
		t.Error("Expected ConfigError to unwrap to base error")
	}
}
