package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name    string
		err     error
		code    ErrorCode
		message string
	}{
		{"sentinel", ErrCustomerNotFound, ErrCodeNotFound, "Customer not found"},
		{"wrapped sentinel", fmt.Errorf("lookup: %w", ErrQuotaExceeded), ErrCodeQuotaExceeded, "Message quota exceeded"},
		{"store failure", Unavailable(cause), ErrCodeStoreUnavailable, "store unavailable"},
		{"plain error", cause, ErrCodeInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.Equal(t, tt.message, MessageOf(tt.err))
			assert.True(t, IsDomainError(tt.err, tt.code))
		})
	}
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, Unavailable(nil))
	assert.Same(t, ErrPolicyNotFound, Unavailable(ErrPolicyNotFound))

	cause := errors.New("bolt: database not open")
	err := Unavailable(cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestErrorIsMatchesCodeAndMessage(t *testing.T) {
	copyOf := WrapError(ErrCodeMalformedInput, ErrInvalidJSON.Message, errors.New("unexpected EOF"))
	assert.ErrorIs(t, copyOf, ErrInvalidJSON)
	assert.NotErrorIs(t, copyOf, ErrPolicyIDRequired)
	assert.Equal(t, "Invalid JSON body: unexpected EOF", copyOf.Error())
}
