package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"communitylog/internal/auditlog"
	"communitylog/internal/invites"
	"communitylog/internal/platform"
	"communitylog/internal/settings"
)

const (
	testChannel    = "12345678901234567"
	defaultChannel = "99999999999999999"
)

type routerFixture struct {
	fake   *platform.Fake
	store  *settings.MemoryStore
	ledger *invites.Ledger
	sink   *MemorySink
	router *Router
}

func newFixture(t *testing.T) *routerFixture {
	t.Helper()
	fake := platform.NewFake()
	store := settings.NewMemoryStore()
	ledger := invites.NewLedger(fake, nil, nil)
	sink := NewMemorySink()

	router := NewRouter(settings.NewCache(store, time.Minute), ledger, auditlog.NewCorrelator(fake, nil), sink)
	router.DefaultChannelID = defaultChannel

	return &routerFixture{fake: fake, store: store, ledger: ledger, sink: sink, router: router}
}

func (f *routerFixture) putSettings(t *testing.T, mutate func(*settings.Record)) {
	t.Helper()
	rec := settings.Defaults("c1")
	rec.LogChannelID = testChannel
	if mutate != nil {
		mutate(&rec)
	}
	f.store.Put(rec)
}

func TestHandle_JoinAttributesInvite(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	f.fake.SetInvites("c1", []platform.Invite{{Code: "abc", Uses: 5, InviterID: "111"}})
	f.ledger.Refresh(context.Background(), "c1")
	f.fake.SetInvites("c1", []platform.Invite{{Code: "abc", Uses: 6, InviterID: "111"}})

	f.router.Handle(context.Background(), Event{Kind: KindMemberJoin, CommunityID: "c1", UserID: "u1", UserName: "alice"})

	recs := f.sink.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	rec := recs[0]
	if rec.Category != settings.CategoryMemberJoin || rec.AttributionKind != invites.AttributionInvite || rec.InviteCode != "abc" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.ChannelID != testChannel {
		t.Fatalf("expected configured channel, got %q", rec.ChannelID)
	}
}

func TestHandle_JoinToggleOffSkipsLedgerAndEmission(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, func(r *settings.Record) { r.LogJoins = false })

	f.router.Handle(context.Background(), Event{Kind: KindMemberJoin, CommunityID: "c1", UserID: "u1"})

	if got := f.fake.ListInviteCalls(); got != 0 {
		t.Fatalf("expected no invite fetch with log_joins disabled, got %d", got)
	}
	if len(f.sink.Records()) != 0 {
		t.Fatalf("expected no emission")
	}
}

func TestHandle_JoinWithoutInviteAttributionToggle(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, func(r *settings.Record) { r.AttributeInvites = false })

	f.router.Handle(context.Background(), Event{Kind: KindMemberJoin, CommunityID: "c1", UserID: "u1"})

	if got := f.fake.ListInviteCalls(); got != 0 {
		t.Fatalf("expected no invite fetch with attribution disabled, got %d", got)
	}
	recs := f.sink.Records()
	if len(recs) != 1 || recs[0].AttributionKind != invites.AttributionUnknown {
		t.Fatalf("expected plain join record, got %+v", recs)
	}
}

func TestHandle_LeaveDetectsKick(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	f.fake.SetAuditPage("c1", platform.ActionKick, []platform.AuditEntry{
		{Kind: platform.ActionKick, TargetID: "u1", ExecutorID: "mod-1", Reason: "rude", CreatedAt: time.Now().Add(-2 * time.Second)},
	})

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"})

	recs := f.sink.Records()
	if len(recs) != 1 || recs[0].Category != settings.CategoryKick {
		t.Fatalf("expected kick record, got %+v", recs)
	}
	if recs[0].ActorID != "mod-1" || recs[0].Reason != "rude" {
		t.Fatalf("expected correlated actor, got %+v", recs[0])
	}
}

func TestHandle_LeaveSuppressedWhenBanOwnsIt(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	f.fake.SetAuditPage("c1", platform.ActionBanAdd, []platform.AuditEntry{
		{Kind: platform.ActionBanAdd, TargetID: "u1", ExecutorID: "mod-1", CreatedAt: time.Now().Add(-time.Second)},
	})

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"})

	if len(f.sink.Records()) != 0 {
		t.Fatalf("expected leave suppressed while ban event owns the record")
	}
}

func TestHandle_PlainLeave(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1", UserName: "bob"})

	recs := f.sink.Records()
	if len(recs) != 1 || recs[0].Category != settings.CategoryMemberLeave {
		t.Fatalf("expected leave record, got %+v", recs)
	}
}

func TestHandle_BanWithDegradedCorrelation(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	// Audit trail unreadable: the ban is still logged, just without an actor.
	f.fake.Err = platform.ErrPermissionDenied

	f.router.Handle(context.Background(), Event{Kind: KindBanAdd, CommunityID: "c1", UserID: "u1"})

	recs := f.sink.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].ActorID != "" {
		t.Fatalf("expected no actor under permission denial, got %+v", recs[0])
	}
}

func TestHandle_MemberUpdateEmitsPerChange(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	until := time.Now().Add(time.Hour)
	f.router.Handle(context.Background(), Event{
		Kind:         KindMemberUpdate,
		CommunityID:  "c1",
		UserID:       "u1",
		OldNickname:  "old",
		NewNickname:  "new",
		RolesAdded:   []string{"role-1"},
		TimeoutUntil: &until,
	})

	recs := f.sink.Records()
	if len(recs) != 3 {
		t.Fatalf("expected nickname+timeout+role records, got %d", len(recs))
	}
	seen := map[settings.Category]bool{}
	for _, rec := range recs {
		seen[rec.Category] = true
	}
	if !seen[settings.CategoryNicknameChange] || !seen[settings.CategoryTimeout] || !seen[settings.CategoryRoleChange] {
		t.Fatalf("missing categories: %+v", seen)
	}
}

func TestHandle_InvalidChannelFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, func(r *settings.Record) { r.LogChannelID = "123" })

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"})

	recs := f.sink.Records()
	if len(recs) != 1 || recs[0].ChannelID != defaultChannel {
		t.Fatalf("expected default channel fallback, got %+v", recs)
	}
}

func TestHandle_NoDestinationDropsEvent(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, func(r *settings.Record) { r.LogChannelID = "123" })
	f.router.DefaultChannelID = ""

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"})

	if len(f.sink.Records()) != 0 {
		t.Fatalf("expected event dropped with no destination")
	}
}

func TestHandle_UnknownCommunityDropsEvent(t *testing.T) {
	f := newFixture(t)
	// No settings record stored; cache reports absent.

	f.router.Handle(context.Background(), Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"})

	if len(f.sink.Records()) != 0 {
		t.Fatalf("expected drop when config unavailable")
	}
}

func TestHandle_InviteCreateRefreshesSnapshot(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	f.fake.SetInvites("c1", []platform.Invite{{Code: "abc", Uses: 1}})
	f.router.Handle(context.Background(), Event{Kind: KindInviteCreate, CommunityID: "c1", InviteCode: "abc"})

	if got := f.ledger.SnapshotFor("c1")["abc"]; got != 1 {
		t.Fatalf("expected snapshot refreshed, got %d", got)
	}
	if len(f.sink.Records()) != 0 {
		t.Fatalf("invite lifecycle events emit no record")
	}
}

type fakeDeduper struct {
	claims   map[string]bool
	released []string
}

func (d *fakeDeduper) ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if d.claims == nil {
		d.claims = map[string]bool{}
	}
	if d.claims[key] {
		return false, nil
	}
	d.claims[key] = true
	return true, nil
}

func (d *fakeDeduper) ReleaseClaim(ctx context.Context, key string) error {
	delete(d.claims, key)
	d.released = append(d.released, key)
	return nil
}

func TestHandle_DuplicateDeliveryIsDropped(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)
	f.router.Dedupe = &fakeDeduper{}

	ev := Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1", DeliveryID: "d-1"}
	f.router.Handle(context.Background(), ev)
	f.router.Handle(context.Background(), ev)

	if got := len(f.sink.Records()); got != 1 {
		t.Fatalf("expected duplicate dropped, got %d records", got)
	}
}

func TestHandle_FailedEmitReleasesClaimForRedelivery(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)
	dedupe := &fakeDeduper{}
	f.router.Dedupe = dedupe

	f.sink.Err = errors.New("sink down")
	ev := Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1", DeliveryID: "d-1"}
	f.router.Handle(context.Background(), ev)

	if len(dedupe.released) != 1 || dedupe.released[0] != dedupeKey("d-1") {
		t.Fatalf("expected claim released after failed emit, got %v", dedupe.released)
	}

	// The redelivered copy claims again and goes through once the sink recovers.
	f.sink.Err = nil
	f.router.Handle(context.Background(), ev)
	if got := len(f.sink.Records()); got != 1 {
		t.Fatalf("expected redelivery to emit, got %d records", got)
	}
}

func TestRun_ConsumesUntilChannelCloses(t *testing.T) {
	f := newFixture(t)
	f.putSettings(t, nil)

	in := make(chan Event, 3)
	in <- Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u1"}
	in <- Event{Kind: KindMemberLeave, CommunityID: "c1", UserID: "u2"}
	close(in)

	f.router.Run(context.Background(), in)

	if got := len(f.sink.Records()); got != 2 {
		t.Fatalf("expected 2 records after drain, got %d", got)
	}
}
