package campaigns

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("campaigns: not found")
	ErrInvalidArgument = errors.New("campaigns: invalid argument")
)

// Repository abstracts campaign persistence.
//
// IMPORTANT:
//   - UpdateStatus checks the transition against the stored status, not a
//     caller's copy, and writes nothing but status and updated_at.
//   - ApplyOutcome must be serialized per campaign and idempotent per call id:
//     the first outcome for a call is folded, later ones only adjust.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	Get(ctx context.Context, id string) (Campaign, error)
	// ListByUser returns the user's campaigns; an empty userID lists all campaigns.
	ListByUser(ctx context.Context, userID string) ([]Campaign, error)
	// UpdateStatus moves the stored campaign to next and returns it with the
	// status it left. An illegal move yields *TransitionError.
	UpdateStatus(ctx context.Context, id string, next Status, at time.Time) (c Campaign, from Status, err error)
	ApplyOutcome(ctx context.Context, o Outcome) (c Campaign, folded bool, err error)
}

// applyOutcome is the shared fold-or-adjust step used by repositories once they
// hold the campaign exclusively.
func applyOutcome(c *Campaign, prev *Outcome, o Outcome) bool {
	if prev == nil {
		c.Fold(o)
		return true
	}
	c.Adjust(*prev, o)
	return false
}
