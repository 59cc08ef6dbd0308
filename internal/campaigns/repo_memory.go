package campaigns

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepo is an in-memory repository for tests and STORAGE_DRIVER=memory.
// A single mutex serializes every fold, which satisfies the per-campaign ordering rule.
type MemoryRepo struct {
	mu        sync.Mutex
	campaigns map[string]Campaign
	outcomes  map[string]Outcome // key: call id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{campaigns: map[string]Campaign{}, outcomes: map[string]Outcome{}}
}

func (r *MemoryRepo) Create(ctx context.Context, c Campaign) error {
	if c.ID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.campaigns[c.ID]; ok {
		return ErrInvalidArgument
	}
	r.campaigns[c.ID] = clone(c)
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return clone(c), nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Campaign, 0)
	for _, c := range r.campaigns {
		if userID != "" && c.UserID != userID {
			continue
		}
		out = append(out, clone(c))
	}
	slices.SortFunc(out, func(a, b Campaign) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, next Status, at time.Time) (Campaign, Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.campaigns[id]
	if !ok {
		return Campaign{}, "", ErrNotFound
	}
	from := cur.Status
	if err := cur.Transition(next); err != nil {
		return Campaign{}, from, err
	}
	cur.UpdatedAt = at
	r.campaigns[id] = cur
	return clone(cur), from, nil
}

func (r *MemoryRepo) ApplyOutcome(ctx context.Context, o Outcome) (Campaign, bool, error) {
	if o.CallID == "" || o.CampaignID == "" {
		return Campaign{}, false, ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.campaigns[o.CampaignID]
	if !ok {
		return Campaign{}, false, ErrNotFound
	}
	var prev *Outcome
	if p, ok := r.outcomes[o.CallID]; ok {
		prev = &p
	}
	folded := applyOutcome(&c, prev, o)
	if !folded {
		// cost and duration stay as first recorded
		o.Duration, o.Cost = prev.Duration, prev.Cost
	}
	r.outcomes[o.CallID] = o
	r.campaigns[c.ID] = c
	return clone(c), folded, nil
}

func clone(c Campaign) Campaign {
	c.Schedule.ActiveDays = slices.Clone(c.Schedule.ActiveDays)
	return c
}
