package pricing

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory rate table for tests and memory storage mode.
type MemoryRepo struct {
	mu    sync.Mutex
	Rates []MinuteRate
}

func (r *MemoryRepo) Add(rate MinuteRate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rates = append(r.Rates, rate)
}

func (r *MemoryRepo) CreateMinuteRate(ctx context.Context, rate MinuteRate) error {
	r.Add(rate)
	return nil
}

func (r *MemoryRepo) FindMinuteRate(ctx context.Context, userID, category string, at time.Time) (MinuteRate, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var best MinuteRate
	found := false
	for _, p := range r.Rates {
		if p.UserID != userID || p.Category != category {
			continue
		}
		if !p.effectiveAt(at) {
			continue
		}
		if !found || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
			found = true
		}
	}
	return best, found, nil
}
