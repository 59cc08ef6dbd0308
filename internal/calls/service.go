package calls

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"paycall-platform/internal/campaigns"
	"paycall-platform/internal/pricing"
	"paycall-platform/pkg/logger"
	"paycall-platform/pkg/metrics"

	"github.com/google/uuid"
)

// CampaignBook is the slice of campaigns.Service the call flow depends on.
type CampaignBook interface {
	Get(ctx context.Context, id string) (campaigns.Campaign, error)
	RecordOutcome(ctx context.Context, o campaigns.Outcome) (campaigns.Campaign, error)
}

type RateResolver interface {
	ResolveRate(ctx context.Context, req pricing.RateRequest) (pricing.Rate, error)
}

// SlotLimiter caps live calls per campaign. utils.RedisSlots and utils.LocalSlots satisfy it.
type SlotLimiter interface {
	Acquire(ctx context.Context, key string, limit int) (bool, error)
	Release(ctx context.Context, key string) error
}

type AuditLogger interface {
	TransitionDenied(ctx context.Context, c Call, to Status) error
}

var (
	ErrNotAccepting     = errors.New("calls: campaign is not accepting calls")
	ErrConcurrencyLimit = errors.New("calls: campaign concurrency limit reached")
)

// Service owns the call lifecycle.
//
// Contract:
//   - Every mutation runs Recompute and rescoring before Save.
//   - A call reaching completed is folded into its campaign exactly once;
//     later revenue or lead changes adjust the campaign instead.
//   - Mutations of one call are serialized within the process.
type Service struct {
	repo      Repository
	campaigns CampaignBook
	rates     RateResolver
	slots     SlotLimiter
	audit     AuditLogger
	clock     func() time.Time

	locks [64]sync.Mutex
}

type Deps struct {
	Repo      Repository
	Campaigns CampaignBook
	Rates     RateResolver
	Slots     SlotLimiter
	Audit     AuditLogger
}

func NewService(d Deps) *Service {
	return &Service{
		repo:      d.Repo,
		campaigns: d.Campaigns,
		rates:     d.Rates,
		slots:     d.Slots,
		audit:     d.Audit,
		clock:     time.Now,
	}
}

func (s *Service) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &s.locks[h.Sum32()%uint32(len(s.locks))]
	m.Lock()
	return m.Unlock
}

// NewCall carries the fields supplied when a call starts.
type NewCall struct {
	CampaignID     string
	CallerNumber   string
	TrackingNumber string
	ProviderCallID string
	// PerMinute overrides rate resolution when > 0.
	PerMinute float64
	// At is the initiation instant; zero means now.
	At time.Time
}

// Start opens a call against one of userID's campaigns.
//
// The rate is taken from the request, then the pricing table, then the campaign default.
func (s *Service) Start(ctx context.Context, userID string, in NewCall) (Call, error) {
	if userID == "" || in.CampaignID == "" || in.CallerNumber == "" || in.PerMinute < 0 {
		return Call{}, ErrInvalidArgument
	}
	camp, err := s.campaigns.Get(ctx, in.CampaignID)
	if err != nil {
		return Call{}, err
	}
	if camp.UserID != userID {
		return Call{}, campaigns.ErrNotFound
	}

	at := in.At
	if at.IsZero() {
		at = s.clock()
	}
	at = at.UTC()
	if !camp.AcceptingCalls(at) {
		return Call{}, ErrNotAccepting
	}

	perMinute := in.PerMinute
	if perMinute == 0 {
		perMinute = camp.DefaultPerMinute
		if s.rates != nil {
			r, err := s.rates.ResolveRate(ctx, pricing.RateRequest{
				UserID:   camp.UserID,
				Category: camp.Category,
				At:       at,
				Fallback: camp.DefaultPerMinute,
			})
			if err != nil {
				return Call{}, err
			}
			perMinute = r.PerMinute
		}
	}

	acquired := false
	if s.slots != nil && camp.MaxConcurrentCalls > 0 {
		ok, err := s.slots.Acquire(ctx, camp.ID, camp.MaxConcurrentCalls)
		if err != nil {
			return Call{}, err
		}
		if !ok {
			metrics.ConcurrencyRejected.Inc()
			return Call{}, ErrConcurrencyLimit
		}
		acquired = true
	}

	now := s.clock().UTC()
	c := Call{
		ID:             uuid.NewString(),
		CampaignID:     camp.ID,
		UserID:         camp.UserID,
		CallerNumber:   in.CallerNumber,
		TrackingNumber: in.TrackingNumber,
		ProviderCallID: in.ProviderCallID,
		Status:         StatusInitiated,
		InitiatedAt:    at,
		Cost:           Cost{PerMinute: perMinute},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	c.Recompute()
	c.CalculateQualificationScore()

	if err := s.repo.Create(ctx, c); err != nil {
		if acquired {
			s.releaseSlot(ctx, c)
		}
		return Call{}, err
	}
	metrics.CallTransitions.WithLabelValues(string(StatusInitiated)).Inc()
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (Call, error) {
	if id == "" {
		return Call{}, ErrInvalidArgument
	}
	return s.repo.Get(ctx, id)
}

// GetOwned hides calls that belong to another user behind ErrNotFound.
func (s *Service) GetOwned(ctx context.Context, userID, id string) (Call, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return Call{}, err
	}
	if c.UserID != userID {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	if userID == "" {
		return nil, ErrInvalidArgument
	}
	return s.repo.ListByUser(ctx, userID, from, to)
}

// ApplyStatus moves a call through its state machine.
//
// Rejected moves are audited and returned as *TransitionError. Redelivering the
// current status changes nothing, except that a completed call is folded again,
// which the campaign side treats as a no-op adjust. A zero at means the service
// clock's now.
func (s *Service) ApplyStatus(ctx context.Context, id string, next Status, at time.Time) (Call, error) {
	if at.IsZero() {
		at = s.clock()
	}
	unlock := s.lock(id)
	defer unlock()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Call{}, err
	}
	prev := c.Status

	if err := c.UpdateStatus(next, at); err != nil {
		metrics.CallTransitionsRejected.WithLabelValues(string(prev), string(next)).Inc()
		if s.audit != nil {
			if aerr := s.audit.TransitionDenied(ctx, c, next); aerr != nil {
				logger.From(ctx).Warn("call audit failed", "call_id", c.ID, "err", aerr)
			}
		}
		return c, err
	}

	if prev == next {
		if next == StatusCompleted {
			return c, s.fold(ctx, c)
		}
		return c, nil
	}

	if err := s.persist(ctx, &c); err != nil {
		return Call{}, err
	}
	metrics.CallTransitions.WithLabelValues(string(next)).Inc()

	if next.Terminal() {
		s.releaseSlot(ctx, c)
	}
	if next == StatusCompleted {
		if err := s.fold(ctx, c); err != nil {
			return c, err
		}
	}
	return c, nil
}

// ApplyEvent resolves a provider status event to a call and applies it.
func (s *Service) ApplyEvent(ctx context.Context, ev StatusEvent) (Call, error) {
	id := ev.CallID
	if id == "" {
		c, err := s.repo.GetByProviderID(ctx, ev.ProviderCallID)
		if err != nil {
			return Call{}, err
		}
		id = c.ID
	}
	return s.ApplyStatus(ctx, id, ev.Status, ev.OccurredAt)
}

// SetRevenue records the revenue attributed to the call.
func (s *Service) SetRevenue(ctx context.Context, id string, amount float64, source string) (Call, error) {
	if amount < 0 {
		return Call{}, ErrInvalidArgument
	}
	return s.mutate(ctx, id, func(c *Call) {
		c.Revenue = Revenue{Amount: amount, Source: source}
	})
}

// SetQuality records the 1..5 quality rating and any noted issues.
func (s *Service) SetQuality(ctx context.Context, id string, score int, issues []string) (Call, error) {
	if score < 1 || score > 5 {
		return Call{}, ErrInvalidArgument
	}
	return s.mutate(ctx, id, func(c *Call) {
		c.Quality = Quality{Score: score, Issues: append([]string(nil), issues...)}
	})
}

// SetLead records the caller's stated minimum budget.
func (s *Service) SetLead(ctx context.Context, id string, budgetMin float64) (Call, error) {
	if budgetMin < 0 {
		return Call{}, ErrInvalidArgument
	}
	return s.mutate(ctx, id, func(c *Call) {
		c.Lead.BudgetMin = budgetMin
	})
}

func (s *Service) mutate(ctx context.Context, id string, fn func(c *Call)) (Call, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return Call{}, err
	}
	fn(&c)
	if err := s.persist(ctx, &c); err != nil {
		return Call{}, err
	}
	if c.Status == StatusCompleted {
		if err := s.fold(ctx, c); err != nil {
			return c, err
		}
	}
	return c, nil
}

func (s *Service) persist(ctx context.Context, c *Call) error {
	c.Recompute()
	c.CalculateQualificationScore()
	c.UpdatedAt = s.clock().UTC()
	return s.repo.Save(ctx, *c)
}

func (s *Service) fold(ctx context.Context, c Call) error {
	if s.campaigns == nil {
		return nil
	}
	if _, err := s.campaigns.RecordOutcome(ctx, c.Outcome()); err != nil {
		logger.From(ctx).Error("campaign fold failed", "call_id", c.ID, "campaign_id", c.CampaignID, "err", err)
		return err
	}
	return nil
}

func (s *Service) releaseSlot(ctx context.Context, c Call) {
	if s.slots == nil {
		return
	}
	if err := s.slots.Release(ctx, c.CampaignID); err != nil {
		logger.From(ctx).Warn("slot release failed", "campaign_id", c.CampaignID, "err", err)
	}
}
