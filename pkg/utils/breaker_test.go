package utils

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestGuard_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewBreaker(BreakerConfig{Name: "test", ConsecutiveFailures: 2})
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := Guard(cb, func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}
	_, err := Guard(cb, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestGuard_NoRowsDoesNotTrip(t *testing.T) {
	cb := NewBreaker(BreakerConfig{Name: "norows", ConsecutiveFailures: 1})

	_, err := Guard(cb, func() (string, error) { return "", sql.ErrNoRows })
	assert.ErrorIs(t, err, sql.ErrNoRows)

	v, err := Guard(cb, func() (string, error) { return "ok", nil })
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
}
