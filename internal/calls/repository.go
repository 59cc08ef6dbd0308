package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("calls: not found")
	ErrInvalidArgument = errors.New("calls: invalid argument")
	// ErrDuplicate means the provider call id is already tracked by another call.
	ErrDuplicate = errors.New("calls: provider call id already tracked")
)

// Repository abstracts call persistence.
//
// Save persists the whole record; callers run Recompute first so derived fields
// survive a save/reload round trip unchanged.
type Repository interface {
	Create(ctx context.Context, c Call) error
	Get(ctx context.Context, id string) (Call, error)
	GetByProviderID(ctx context.Context, providerCallID string) (Call, error)
	Save(ctx context.Context, c Call) error
	// ListByUser returns the user's calls initiated in [from, to). Zero bounds are open.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]Call, error)
}
