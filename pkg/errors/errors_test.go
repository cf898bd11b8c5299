package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOfUnwrapsWrappedErrors(t *testing.T) {
	base := NotFound("test", nil)
	wrapped := fmt.Errorf("loading record: %w", base)

	assert.Equal(t, ErrNotFound, CodeOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("row scan failed")
	err := Validation("bad payload", cause)

	assert.Contains(t, err.Error(), "bad payload")
	assert.Contains(t, err.Error(), "row scan failed")
	assert.Equal(t, cause, errors.Unwrap(err))

	assert.Equal(t, "forbidden", Forbidden("").Message)
	assert.Contains(t, DuplicateCode("CBC").Error(), "CBC")
}
