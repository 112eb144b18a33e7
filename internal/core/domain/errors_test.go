package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitError(t *testing.T) {
	err := &RateLimitError{Decision: RateLimitDecision{
		Allowed: false,
		ResetIn: 42 * time.Second,
		Limit:   5,
	}}

	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Contains(t, err.Error(), "42s")

	// Wrapping preserves the sentinel match.
	wrapped := fmt.Errorf("scan: %w", err)
	assert.True(t, errors.Is(wrapped, ErrRateLimited))

	var rle *RateLimitError
	assert.True(t, errors.As(wrapped, &rle))
	assert.Equal(t, 5, rle.Decision.Limit)
}
