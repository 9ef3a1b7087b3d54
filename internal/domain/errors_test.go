package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("search: %w", NewNetworkError(context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "cause stays reachable")
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(NewNetworkError(errors.New("refused"))))
	assert.True(t, Recoverable(NewUpstreamFormatError("not JSON")))
	assert.False(t, Recoverable(NewNotFoundError("M1")))
	assert.False(t, Recoverable(NewValidationError("rows", "must not be negative")))
	assert.False(t, Recoverable(errors.New("plain")))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Museum not found", UserMessage(NewNotFoundError("M1")))
	assert.Equal(t, "Unexpected error", UserMessage(errors.New("plain")))

	err := NewNetworkError(errors.New("dial tcp 10.0.0.1: refused"))
	assert.NotContains(t, UserMessage(err), "10.0.0.1")
	assert.Contains(t, err.Error(), "10.0.0.1")
}

func TestCriteriaValidate(t *testing.T) {
	ok := SearchCriteria{Coordinates: &Coordinates{Lat: 90, Lng: -180}}
	assert.NoError(t, ok.Validate())

	for _, c := range []SearchCriteria{
		{Rows: -1},
		{Page: -1},
		{RadiusKm: -0.1},
		{Coordinates: &Coordinates{Lat: 90.01}},
		{Coordinates: &Coordinates{Lng: 181}},
	} {
		assert.ErrorIs(t, c.Validate(), ErrValidation)
	}
	assert.Equal(t, DefaultRadiusKm, SearchCriteria{}.Radius())
	assert.Equal(t, 2.5, SearchCriteria{RadiusKm: 2.5}.Radius())
}
