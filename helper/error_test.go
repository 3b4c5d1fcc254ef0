package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Message contains the operation", func(t *testing.T) {
		err := NewError("create collection", fmt.Errorf("dimension must be positive"))

		assert.Equal(t, "error at create collection: dimension must be positive", err.Error())
	})

	t.Run("Wrapped sentinel stays reachable", func(t *testing.T) {
		sentinel := errors.New("unknown collection")

		err := NewError("query", fmt.Errorf("%w: %q", sentinel, "missing"))

		assert.ErrorIs(t, err, sentinel)
	})
}
