package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. Append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.OwnerID == "" || e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogCampaignStatus records a lifecycle change made by actorUserID.
func (s *Service) LogCampaignStatus(ctx context.Context, ownerID, actorUserID, campaignID, from, to string) error {
	return s.Append(ctx, Event{
		OwnerID:     ownerID,
		Type:        EventTypeCampaignStatus,
		ActorUserID: actorUserID,
		CampaignID:  campaignID,
		Message:     "campaign status changed",
		Metadata:    metadata(map[string]string{"from": from, "to": to}),
	})
}

// LogTransitionDenied records a call status event that the state machine rejected.
func (s *Service) LogTransitionDenied(ctx context.Context, ownerID, campaignID, callID, from, to string) error {
	return s.Append(ctx, Event{
		OwnerID:    ownerID,
		Type:       EventTypeCallTransitionDeny,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "call status transition rejected",
		Metadata:   metadata(map[string]string{"from": from, "to": to}),
	})
}

// LogBudgetExhausted records that a fold used up the campaign budget.
func (s *Service) LogBudgetExhausted(ctx context.Context, ownerID, campaignID, callID string) error {
	return s.Append(ctx, Event{
		OwnerID:    ownerID,
		Type:       EventTypeBudgetExhausted,
		CampaignID: campaignID,
		CallID:     callID,
		Message:    "campaign budget exhausted",
	})
}

func metadata(m map[string]string) string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
