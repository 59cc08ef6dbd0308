package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service resolves the per-minute rate a new call is charged at.
//
// Contract:
// - Owner-scoped lookup by campaign category and instant.
// - Falls back to the campaign default when no row matches.
// - Pure calculation + repository lookups.
type Service struct {
	repo  RateRepository
	clock func() time.Time
}

func NewService(repo RateRepository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// RateRepository abstracts rate persistence.
type RateRepository interface {
	FindMinuteRate(ctx context.Context, userID, category string, at time.Time) (MinuteRate, bool, error)
	CreateMinuteRate(ctx context.Context, rate MinuteRate) error
}

type RateRequest struct {
	UserID   string
	Category string
	// At selects the effective row. Zero means now.
	At time.Time
	// Fallback is returned when no row matches (typically Campaign.DefaultPerMinute).
	Fallback float64
}

type Rate struct {
	PerMinute float64
	// Source is "table" or "default".
	Source string
}

var (
	ErrInvalidRateReq = errors.New("pricing: invalid rate request")
	ErrInvalidRate    = errors.New("pricing: invalid rate")
)

func (s *Service) ResolveRate(ctx context.Context, req RateRequest) (Rate, error) {
	if req.UserID == "" || req.Fallback < 0 {
		return Rate{}, ErrInvalidRateReq
	}
	if req.Category == "" || s.repo == nil {
		return Rate{PerMinute: req.Fallback, Source: "default"}, nil
	}

	at := req.At
	if at.IsZero() {
		at = s.clock().UTC()
	}
	r, ok, err := s.repo.FindMinuteRate(ctx, req.UserID, req.Category, at)
	if err != nil {
		return Rate{}, err
	}
	if !ok {
		return Rate{PerMinute: req.Fallback, Source: "default"}, nil
	}
	return Rate{PerMinute: r.RatePerMinute, Source: "table"}, nil
}

// NewRate carries the fields an admin supplies for a rate row.
type NewRate struct {
	UserID        string
	Category      string
	RatePerMinute float64
	// EffectiveFrom zero means now.
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

// CreateRate stores an active rate row for an advertiser and category.
// Older rows are left in place; the newest effective row wins at lookup.
func (s *Service) CreateRate(ctx context.Context, in NewRate) (MinuteRate, error) {
	if in.UserID == "" || in.Category == "" || in.RatePerMinute < 0 {
		return MinuteRate{}, ErrInvalidRate
	}
	now := s.clock().UTC()
	from := in.EffectiveFrom.UTC()
	if in.EffectiveFrom.IsZero() {
		from = now
	}
	var to *time.Time
	if in.EffectiveTo != nil {
		t := in.EffectiveTo.UTC()
		if !t.After(from) {
			return MinuteRate{}, ErrInvalidRate
		}
		to = &t
	}

	r := MinuteRate{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Category:      in.Category,
		RatePerMinute: in.RatePerMinute,
		EffectiveFrom: from,
		EffectiveTo:   to,
		Status:        RateStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateMinuteRate(ctx, r); err != nil {
		return MinuteRate{}, err
	}
	return r, nil
}
