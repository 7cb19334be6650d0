package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	err := New(CodeInvalidState, "already processed")
	wrapped := fmt.Errorf("forward: %w", err)

	assert.True(t, HasCode(err, CodeInvalidState))
	assert.True(t, HasCode(wrapped, CodeInvalidState))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestIsComparesCodeAndMessage(t *testing.T) {
	err := Wrap(errors.New("boom"), CodeInternal, "failed to load")

	require.ErrorIs(t, err, New(CodeInternal, "failed to load"))
	assert.NotErrorIs(t, err, New(CodeInternal, "something else"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(New(CodeForbidden, "denied")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "unused"))
}

func TestNewValidationCarriesFields(t *testing.T) {
	err := NewValidation("invalid request", map[string]string{"reason": "required"})

	de, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeValidation, de.Code)
	assert.Equal(t, "required", de.Fields["reason"])
}
