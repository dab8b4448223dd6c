package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesOnCode(t *testing.T) {
	err := Wrap(CodeNoData, "No data found for this ticker symbol", errors.New("empty result"))
	wrapped := fmt.Errorf("history: %w", err)

	assert.True(t, errors.Is(wrapped, ErrNoData))
	assert.False(t, errors.Is(wrapped, ErrProviderUnavailable))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeInvalidInput, CodeOf(InvalidInput("days must be positive, got %d", 0)))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestMessageOf_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Internal server error", MessageOf(errors.New("sql: database is locked")))
	assert.Equal(t, "Internal server error", MessageOf(Wrap(CodeInternal, "load closes", errors.New("x"))))
	assert.Equal(t, "Ticker symbol is required", MessageOf(New(CodeInvalidInput, "Ticker symbol is required")))
}
