package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("commit: %w", NewPersistenceError(cause))

	assert.True(t, IsRetryable(err))
	assert.Equal(t, ErrCodePersistenceFailed, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PERSISTENCE_FAILED")
}

func TestCatalogUnavailableError(t *testing.T) {
	err := NewCatalogUnavailableError(errors.New("missing file"))

	assert.False(t, IsRetryable(err))
	assert.Equal(t, ErrCodeCatalogUnavailable, CodeOf(err))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	assert.False(t, IsRetryable(errors.New("boom")))
}
