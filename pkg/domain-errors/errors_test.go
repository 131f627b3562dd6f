package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAndCodeOf(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("write object: %w", Wrap(cause, CodeInternal, "failed to store result"))

	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.True(t, HasCode(err, CodeInternal))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err))
	assert.Equal(t, "write object: failed to store result: disk full", err.Error())
}

func TestCodeOf_Uncoded(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.False(t, HasCode(nil, CodeInternal))
	assert.False(t, Is(errors.New("plain")))
}

func TestErrorsIsMatchesCode(t *testing.T) {
	err := New(CodeInvalidInput, "bad locator")
	assert.ErrorIs(t, err, New(CodeInvalidInput, ""))
	assert.NotErrorIs(t, err, New(CodeInternal, ""))
}

func TestWrapWithoutMessage(t *testing.T) {
	err := Wrap(errors.New("locator has no scheme"), CodeInvalidInput, "")
	assert.Equal(t, "locator has no scheme", err.Error())
	assert.Equal(t, "locator has no scheme", err.Description())
	assert.Equal(t, "bad locator", New(CodeInvalidInput, "bad locator").Description())
}
