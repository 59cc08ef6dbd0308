package audit

import (
	"context"
	"testing"
)

func TestService_AppendRequiresOwnerAndType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Type: EventTypeCampaignStatus}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{OwnerID: "u"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_LogCampaignStatus(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogCampaignStatus(context.Background(), "owner", "admin", "camp", "draft", "active"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp assigned")
	}
	if evs[0].Metadata != `{"from":"draft","to":"active"}` {
		t.Fatalf("unexpected metadata %q", evs[0].Metadata)
	}
}

func TestService_LogTransitionDenied(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.LogTransitionDenied(context.Background(), "owner", "camp", "call", "completed", "ringing"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	evs := repo.Events()
	if len(evs) != 1 || evs[0].Type != EventTypeCallTransitionDeny || evs[0].CallID != "call" {
		t.Fatalf("unexpected events: %+v", evs)
	}
}
