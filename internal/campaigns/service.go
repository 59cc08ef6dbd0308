package campaigns

import (
	"context"
	"errors"
	"time"

	"paycall-platform/pkg/logger"
	"paycall-platform/pkg/metrics"

	"github.com/google/uuid"
)

// AuditLogger receives lifecycle events. Implementations are best-effort.
type AuditLogger interface {
	CampaignStatusChanged(ctx context.Context, c Campaign, from Status, actorUserID string) error
	BudgetExhausted(ctx context.Context, c Campaign, callID string) error
}

// Service owns campaign lifecycle and performance aggregation.
//
// Contract:
//   - Performance is changed only through RecordOutcome.
//   - Reads are unscoped (Get) or owner-scoped (GetOwned); HTTP handlers pick one by role.
type Service struct {
	repo  Repository
	audit AuditLogger
	clock func() time.Time
}

func NewService(repo Repository, audit AuditLogger) *Service {
	return &Service{repo: repo, audit: audit, clock: time.Now}
}

// NewCampaign carries the fields an advertiser supplies on creation.
type NewCampaign struct {
	Name               string
	Category           string
	DefaultPerMinute   float64
	MaxConcurrentCalls int
	DailyBudget        float64
	TotalBudget        float64
	Schedule           Schedule
}

func (s *Service) Create(ctx context.Context, userID string, in NewCampaign) (Campaign, error) {
	if userID == "" || in.Name == "" {
		return Campaign{}, ErrInvalidArgument
	}
	if in.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(in.Schedule.Timezone); err != nil {
			return Campaign{}, ErrInvalidArgument
		}
	}
	if err := validateHours(in.Schedule.ActiveHours); err != nil {
		return Campaign{}, err
	}

	now := s.clock().UTC()
	c := Campaign{
		ID:                 uuid.NewString(),
		UserID:             userID,
		Name:               in.Name,
		Category:           in.Category,
		DefaultPerMinute:   in.DefaultPerMinute,
		MaxConcurrentCalls: in.MaxConcurrentCalls,
		Status:             StatusDraft,
		Budget:             Budget{Daily: in.DailyBudget, Total: in.TotalBudget},
		Schedule:           in.Schedule,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	c.RefreshRemaining()

	if err := s.repo.Create(ctx, c); err != nil {
		return Campaign{}, err
	}
	return c, nil
}

func validateHours(h ActiveHours) error {
	for _, v := range []string{h.Start, h.End} {
		if v == "" {
			continue
		}
		if _, err := ParseClock(v); err != nil {
			return errors.Join(ErrInvalidArgument, err)
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Campaign, error) {
	if id == "" {
		return Campaign{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

// GetOwned loads a campaign and hides it from anyone but its owner.
func (s *Service) GetOwned(ctx context.Context, userID, id string) (Campaign, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Campaign{}, err
	}
	if c.UserID != userID {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

// List returns the user's campaigns; an empty userID lists everything.
func (s *Service) List(ctx context.Context, userID string) ([]Campaign, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ChangeStatus applies a lifecycle transition requested by actorUserID.
// Only c.ID is used; the move is checked against the stored status, so a stale
// copy cannot revive a cancelled or completed campaign.
func (s *Service) ChangeStatus(ctx context.Context, c Campaign, next Status, actorUserID string) (Campaign, error) {
	c, from, err := s.repo.UpdateStatus(ctx, c.ID, next, s.clock().UTC())
	if err != nil {
		return Campaign{}, err
	}

	if s.audit != nil {
		if err := s.audit.CampaignStatusChanged(ctx, c, from, actorUserID); err != nil {
			logger.From(ctx).Warn("campaign audit failed", "campaign_id", c.ID, "err", err)
		}
	}
	return c, nil
}

// RecordOutcome folds a completed call into its campaign, or adjusts it if the call
// was already folded. Safe to call repeatedly for the same call.
func (s *Service) RecordOutcome(ctx context.Context, o Outcome) (Campaign, error) {
	if o.At.IsZero() {
		o.At = s.clock().UTC()
	}
	before, err := s.repo.Get(ctx, o.CampaignID)
	if err != nil {
		return Campaign{}, err
	}

	c, folded, err := s.repo.ApplyOutcome(ctx, o)
	if err != nil {
		return Campaign{}, err
	}

	if folded {
		metrics.OutcomesFolded.Inc()
		metrics.CallDuration.Observe(float64(o.Duration))
		if o.Qualified {
			metrics.QualifiedLeads.Inc()
		}
	} else {
		metrics.OutcomesAdjusted.Inc()
	}

	if s.audit != nil && !before.BudgetExhausted(o.At) && c.BudgetExhausted(o.At) {
		if err := s.audit.BudgetExhausted(ctx, c, o.CallID); err != nil {
			logger.From(ctx).Warn("budget audit failed", "campaign_id", c.ID, "err", err)
		}
	}
	return c, nil
}

// IsActive evaluates the schedule predicate for a stored campaign.
func (s *Service) IsActive(c Campaign, at time.Time) bool {
	if at.IsZero() {
		at = s.clock()
	}
	return c.IsActiveAt(at)
}
