package calls

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("calls: invalid status transition")

// TransitionError describes a rejected status change. It matches ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("calls: cannot move from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// transitions lists the legal forward moves. Terminal states have no entry.
var transitions = map[Status][]Status{
	StatusInitiated: {StatusRinging, StatusAnswered, StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy},
	StatusRinging:   {StatusAnswered, StatusFailed, StatusNoAnswer, StatusBusy},
	StatusAnswered:  {StatusCompleted, StatusFailed},
}

// CanTransition reports whether from → to is a legal status change.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves the call to next and stamps the matching timing field.
//
// A zero at is replaced by time.Now. Re-applying the current status is a no-op so
// redelivered provider events are harmless. Derived fields are not touched; call
// Recompute before persisting.
func (c *Call) UpdateStatus(next Status, at time.Time) error {
	if !next.Valid() {
		return &TransitionError{From: c.Status, To: next}
	}
	if next == c.Status {
		return nil
	}
	if !CanTransition(c.Status, next) {
		return &TransitionError{From: c.Status, To: next}
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	c.Status = next
	switch {
	case next == StatusRinging:
		stampOnce(&c.RingingAt, at)
	case next == StatusAnswered:
		stampOnce(&c.AnsweredAt, at)
	case next.Terminal():
		stampOnce(&c.EndedAt, at)
	}
	return nil
}

func stampOnce(field **time.Time, at time.Time) {
	if *field != nil {
		return
	}
	t := at
	*field = &t
}

// Recompute refreshes duration, wait time, and total cost from the timing fields.
// Missing inputs leave the previous values in place.
func (c *Call) Recompute() {
	if c.AnsweredAt != nil && c.EndedAt != nil {
		c.Duration = wholeSeconds(c.EndedAt.Sub(*c.AnsweredAt))
	}
	if c.RingingAt != nil && c.AnsweredAt != nil {
		c.WaitTime = wholeSeconds(c.AnsweredAt.Sub(*c.RingingAt))
	}
	if c.Duration > 0 && c.Cost.PerMinute > 0 {
		c.Cost.Total = float64(c.Duration) / 60 * c.Cost.PerMinute
	}
}

func wholeSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

const (
	QualifiedThreshold = 70
	maxScore           = 100
)

// CalculateQualificationScore scores the lead from scratch and stores the result.
// It returns the unclamped point total; Lead.Score holds the value capped at 100.
func (c *Call) CalculateQualificationScore() int {
	score := durationPoints(c.Duration)

	switch {
	case c.Quality.Score >= 4:
		score += 20
	case c.Quality.Score >= 3:
		score += 10
	}

	if c.Revenue.Amount > 0 {
		score += 30
	}
	if c.Lead.BudgetMin > 1000 {
		score += 15
	}

	c.Lead.Score = min(score, maxScore)
	c.Lead.Qualified = c.Lead.Score >= QualifiedThreshold
	return score
}

func durationPoints(seconds int) int {
	switch {
	case seconds >= 300:
		return 25
	case seconds >= 180:
		return 15
	case seconds >= 60:
		return 10
	default:
		return 0
	}
}
