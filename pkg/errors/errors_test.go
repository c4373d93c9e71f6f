package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBusinessErrorWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		code     string
	}{
		{"unsupported", Unsupported("interest method %q", "COMPOUND"), ErrUnsupportedConfiguration, ErrCodeUnsupportedConfiguration},
		{"invariant", Invariant("principal drift %s", "0.01"), ErrInvariantViolation, ErrCodeInvariantViolation},
		{"upstream", Upstream("calendar missing"), ErrUpstreamData, ErrCodeUpstreamData},
		{"currency", WrapCurrencyMismatch("USD", "EUR"), ErrCurrencyMismatch, ErrCodeCurrencyMismatch},
		{"not found", WrapLoanNotFound("LOAN1"), ErrLoanNotFound, ErrCodeLoanNotFound},
		{"validation", WrapValidation(errors.New("amount required")), ErrValidation, ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("generate: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))
			assert.Equal(t, tt.code, CodeOf(wrapped))
			assert.Contains(t, tt.err.Error(), tt.code)
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, "", CodeOf(errors.New("boom")))
	assert.Equal(t, "", CodeOf(nil))
}
