package campaigns

import (
	"context"
	"testing"

	"paycall-platform/internal/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_CreateValidates(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", NewCampaign{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create(ctx, "u1", NewCampaign{Name: "x", Schedule: Schedule{Timezone: "Nowhere/Town"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = svc.Create(ctx, "u1", NewCampaign{Name: "x", Schedule: Schedule{ActiveHours: ActiveHours{End: "25:00"}}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.ErrorIs(t, err, ErrInvalidClock)

	c, err := svc.Create(ctx, "u1", NewCampaign{Name: "Legal", TotalBudget: 500})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, c.Status)
	assert.Equal(t, 500.0, c.Budget.Remaining)
}

func TestService_ChangeStatusWritesAudit(t *testing.T) {
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), AuditAdapter{Audit: audit.NewService(auditRepo)})
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", NewCampaign{Name: "Solar"})
	require.NoError(t, err)

	c, err = svc.ChangeStatus(ctx, c, StatusActive, "admin")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, c.Status)

	_, err = svc.ChangeStatus(ctx, c, StatusDraft, "admin")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	evs := auditRepo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, audit.EventTypeCampaignStatus, evs[0].Type)
	assert.Equal(t, "owner", evs[0].OwnerID)
	assert.Equal(t, "admin", evs[0].ActorUserID)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, stored.Status)
}

func TestService_ChangeStatusChecksStoredStatus(t *testing.T) {
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), AuditAdapter{Audit: audit.NewService(auditRepo)})
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", NewCampaign{Name: "Roofing"})
	require.NoError(t, err)
	active, err := svc.ChangeStatus(ctx, c, StatusActive, "owner")
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, active, StatusCancelled, "admin")
	require.NoError(t, err)

	// active is now stale; pausing it must be judged against "cancelled".
	_, err = svc.ChangeStatus(ctx, active, StatusPaused, "owner")
	require.ErrorIs(t, err, ErrInvalidTransition)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, StatusCancelled, te.From)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Len(t, auditRepo.Events(), 2)
}

func TestService_ChangeStatusAuditsStoredFrom(t *testing.T) {
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), AuditAdapter{Audit: audit.NewService(auditRepo)})
	ctx := context.Background()

	draft, err := svc.Create(ctx, "owner", NewCampaign{Name: "Movers"})
	require.NoError(t, err)
	_, err = svc.ChangeStatus(ctx, draft, StatusActive, "owner")
	require.NoError(t, err)

	// draft -> paused is illegal, but the stored campaign is active.
	c, err := svc.ChangeStatus(ctx, draft, StatusPaused, "owner")
	require.NoError(t, err)
	assert.Equal(t, StatusPaused, c.Status)

	evs := auditRepo.Events()
	require.Len(t, evs, 2)
	assert.JSONEq(t, `{"from":"active","to":"paused"}`, evs[1].Metadata)
}

func TestService_RecordOutcomeAuditsBudgetExhaustion(t *testing.T) {
	auditRepo := audit.NewMemoryRepo()
	svc := NewService(NewMemoryRepo(), AuditAdapter{Audit: audit.NewService(auditRepo)})
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", NewCampaign{Name: "Pest control", TotalBudget: 30})
	require.NoError(t, err)

	_, err = svc.RecordOutcome(ctx, Outcome{CallID: "a", CampaignID: c.ID, Cost: 20, At: day})
	require.NoError(t, err)
	assert.Empty(t, auditRepo.Events())

	c, err = svc.RecordOutcome(ctx, Outcome{CallID: "b", CampaignID: c.ID, Cost: 20, At: day})
	require.NoError(t, err)
	assert.Equal(t, -10.0, c.Budget.Remaining)

	evs := auditRepo.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, audit.EventTypeBudgetExhausted, evs[0].Type)
	assert.Equal(t, "b", evs[0].CallID)
}

func TestService_GetOwned(t *testing.T) {
	svc := NewService(NewMemoryRepo(), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", NewCampaign{Name: "HVAC"})
	require.NoError(t, err)

	_, err = svc.GetOwned(ctx, "other", c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetOwned(ctx, "owner", c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
