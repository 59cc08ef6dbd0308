package campaigns

import (
	"context"

	"paycall-platform/internal/audit"
)

// AuditAdapter bridges campaign lifecycle hooks to the shared audit.Service.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) CampaignStatusChanged(ctx context.Context, c Campaign, from Status, actorUserID string) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.LogCampaignStatus(ctx, c.UserID, actorUserID, c.ID, string(from), string(c.Status))
}

func (a AuditAdapter) BudgetExhausted(ctx context.Context, c Campaign, callID string) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.LogBudgetExhausted(ctx, c.UserID, c.ID, callID)
}
