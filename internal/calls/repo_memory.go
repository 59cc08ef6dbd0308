package calls

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository for tests and STORAGE_DRIVER=memory.
type MemoryRepo struct {
	mu    sync.Mutex
	calls map[string]Call
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{calls: map[string]Call{}} }

func (r *MemoryRepo) Create(ctx context.Context, c Call) error {
	if c.ID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; ok {
		return ErrInvalidArgument
	}
	if c.ProviderCallID != "" {
		for _, other := range r.calls {
			if other.ProviderCallID == c.ProviderCallID {
				return ErrDuplicate
			}
		}
	}
	r.calls[c.ID] = clone(c)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	return clone(c), nil
}

func (r *MemoryRepo) GetByProviderID(ctx context.Context, providerCallID string) (Call, error) {
	if providerCallID == "" {
		return Call{}, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.ProviderCallID == providerCallID {
			return clone(c), nil
		}
	}
	return Call{}, ErrNotFound
}

func (r *MemoryRepo) Save(ctx context.Context, c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[c.ID]; !ok {
		return ErrNotFound
	}
	r.calls[c.ID] = clone(c)
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, 0)
	for _, c := range r.calls {
		if c.UserID != userID {
			continue
		}
		if !from.IsZero() && c.InitiatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !c.InitiatedAt.Before(to) {
			continue
		}
		out = append(out, clone(c))
	}
	slices.SortFunc(out, func(a, b Call) int { return a.InitiatedAt.Compare(b.InitiatedAt) })
	return out, nil
}

func clone(c Call) Call {
	c.Quality.Issues = slices.Clone(c.Quality.Issues)
	c.RingingAt = cloneTime(c.RingingAt)
	c.AnsweredAt = cloneTime(c.AnsweredAt)
	c.EndedAt = cloneTime(c.EndedAt)
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
