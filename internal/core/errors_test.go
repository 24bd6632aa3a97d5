package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorCarriesKind(t *testing.T) {
	err := NewError(KindNotFound, "record %q not found", "A;0")
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindReadOnly))
	assert.Contains(t, err.Error(), "A;0")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := WrapError(KindStoreError, cause, "aggregate failed")

	assert.True(t, Is(err, KindStoreError))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")
}

func TestIsReturnsFalseForPlainErrors(t *testing.T) {
	assert.False(t, Is(fmt.Errorf("plain"), KindNotFound))
}
