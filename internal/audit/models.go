package audit

import "time"

// Event is an immutable, append-only audit record.
//
// Invariants:
// - Events are never updated or deleted.
// - owner_id (the campaign owner) is required so records can be scoped per advertiser.
// - Audit writes are best-effort; callers must not fail a business operation on them.
type Event struct {
	ID      string    `json:"id" db:"id"`
	OwnerID string    `json:"owner_id" db:"owner_id"`
	Type    EventType `json:"type" db:"type"`

	// ActorUserID is who caused the event; empty for provider callbacks.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`

	CampaignID string `json:"campaign_id,omitempty" db:"campaign_id"`
	CallID     string `json:"call_id,omitempty" db:"call_id"`

	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON (JSONB in Postgres).
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCampaignStatus     EventType = "campaign_status"
	EventTypeCallTransitionDeny EventType = "call_transition_denied"
	EventTypeBudgetExhausted    EventType = "budget_exhausted"
)
