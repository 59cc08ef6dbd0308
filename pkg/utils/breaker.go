package utils

import (
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig tunes the database circuit breaker.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	Interval            time.Duration
	Timeout             time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	out := c
	if out.Name == "" {
		out.Name = "database"
	}
	if out.ConsecutiveFailures == 0 {
		out.ConsecutiveFailures = 5
	}
	if out.Interval <= 0 {
		out.Interval = time.Minute
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	return out
}

// NewBreaker returns a circuit breaker that trips after consecutive infrastructure
// failures. sql.ErrNoRows is a normal result and never counts against it.
func NewBreaker(cfg BreakerConfig) *gobreaker.CircuitBreaker[any] {
	cfg = cfg.withDefaults()
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:     cfg.Name,
		Interval: cfg.Interval,
		Timeout:  cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, sql.ErrNoRows)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// Guard runs fn through the breaker and returns its typed result.
func Guard[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	if cb == nil {
		return fn()
	}
	res, err := cb.Execute(func() (any, error) { return fn() })
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("breaker: unexpected result type")
	}
	return v, nil
}
