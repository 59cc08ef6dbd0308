package calls

import (
	"context"

	"paycall-platform/internal/audit"
)

// AuditAdapter records rejected status events through the shared audit.Service.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) TransitionDenied(ctx context.Context, c Call, to Status) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.LogTransitionDenied(ctx, c.UserID, c.CampaignID, c.ID, string(c.Status), string(to))
}
