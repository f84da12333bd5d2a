package journal

import (
	"context"
	"testing"
	"time"

	"communitylog/internal/events"
	"communitylog/internal/settings"
)

func TestService_AppendRequiresCommunityAndCategory(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), events.Record{Category: settings.CategoryBan}); err == nil {
		t.Fatalf("expected error without community")
	}
	if err := svc.Append(context.Background(), events.Record{CommunityID: "c1"}); err == nil {
		t.Fatalf("expected error without category")
	}
}

func TestService_AppendsEntryFromRecord(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	emitted := time.Unix(1700000000, 0).UTC()
	err := svc.Append(context.Background(), events.Record{
		CommunityID: "c1",
		Category:    settings.CategoryKick,
		ChannelID:   "12345678901234567",
		SubjectID:   "u1",
		ActorID:     "mod-1",
		Summary:     "u1 was kicked by mod-1",
		EmittedAt:   emitted,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	entries := repo.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry")
	}
	e := entries[0]
	if e.ID == "" {
		t.Fatalf("expected generated id")
	}
	if e.Category != string(settings.CategoryKick) || e.ActorID != "mod-1" || e.EmittedAt != emitted {
		t.Fatalf("unexpected entry: %+v", e)
	}
}

func TestService_ListRecentNewestFirst(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	for _, subject := range []string{"u1", "u2", "u3"} {
		if err := svc.Append(context.Background(), events.Record{
			CommunityID: "c1",
			Category:    settings.CategoryMemberLeave,
			SubjectID:   subject,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	_ = svc.Append(context.Background(), events.Record{CommunityID: "c2", Category: settings.CategoryBan})

	entries, err := svc.ListRecent(context.Background(), "c1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].SubjectID != "u3" || entries[1].SubjectID != "u2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
