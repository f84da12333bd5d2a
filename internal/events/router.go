package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"communitylog/internal/auditlog"
	"communitylog/internal/invites"
	"communitylog/internal/platform"
	"communitylog/internal/settings"
)

// Deduper is the optional at-least-once delivery guard. A redis-backed
// implementation lives in pkg/utils; tests use fakes.
//
// ReleaseClaim undoes a claim when processing failed before any side effect,
// so the transport's redelivery gets another chance.
type Deduper interface {
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseClaim(ctx context.Context, key string) error
}

// Journal optionally records every emitted record for local operator
// inspection. Append failures never affect emission.
type Journal interface {
	Append(ctx context.Context, rec Record) error
}

// ChannelResolver confirms a destination channel exists before emission.
// platform.Provider satisfies it.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, channelID string) (platform.Channel, error)
}

const dedupeTTL = 5 * time.Minute

func dedupeKey(deliveryID string) string {
	return "communitylog:event:" + deliveryID
}

// Router consumes inbound events and drives the pipeline: settings lookup,
// toggle check, attribution, destination resolution, emission.
//
// Each event is handled in its own goroutine; events for the same community
// are not serialized. No error escapes Handle: every degraded path ends in a
// dropped event or a partially attributed record.
type Router struct {
	Settings   *settings.Cache
	Ledger     *invites.Ledger
	Correlator *auditlog.Correlator
	Sink       Sink

	// Optional collaborators.
	Dedupe   Deduper
	Journals Journal
	Channels ChannelResolver

	// DefaultChannelID is the process-wide fallback destination.
	DefaultChannelID string

	// CallTimeout bounds every provider-facing call made while handling one
	// event. Zero means 3s.
	CallTimeout time.Duration

	Log *slog.Logger
	Now func() time.Time
}

func NewRouter(cache *settings.Cache, ledger *invites.Ledger, correlator *auditlog.Correlator, sink Sink) *Router {
	return &Router{
		Settings:   cache,
		Ledger:     ledger,
		Correlator: correlator,
		Sink:       sink,
		Log:        slog.Default(),
		Now:        time.Now,
	}
}

// Run consumes events until ctx is canceled or the channel closes, then
// waits for in-flight handlers.
func (r *Router) Run(ctx context.Context, in <-chan Event) {
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			wg.Add(1)
			go func(ev Event) {
				defer wg.Done()
				r.Handle(ctx, ev)
			}(ev)
		}
	}
}

// Handle processes a single event end to end. Safe for concurrent use.
func (r *Router) Handle(ctx context.Context, ev Event) {
	if !ev.Valid() {
		r.log().Debug("dropping malformed event", "kind", ev.Kind, "community_id", ev.CommunityID)
		return
	}

	if r.Dedupe != nil && ev.DeliveryID != "" {
		callCtx, cancel := r.callContext(ctx)
		claimed, err := r.Dedupe.ClaimOnce(callCtx, dedupeKey(ev.DeliveryID), dedupeTTL)
		cancel()
		// A dedupe error never drops an event; reprocessing is the safe side.
		if err == nil && !claimed {
			return
		}
	}

	cfgCtx, cancel := r.callContext(ctx)
	cfg, ok := r.Settings.Get(cfgCtx, ev.CommunityID)
	cancel()
	if !ok {
		// ConfigUnavailable: logging is effectively disabled for this event.
		return
	}

	switch ev.Kind {
	case KindInviteCreate, KindInviteDelete:
		// No record; just keep the snapshot warm for join attribution.
		refreshCtx, cancel := r.callContext(ctx)
		r.Ledger.Refresh(refreshCtx, ev.CommunityID)
		cancel()
	case KindMemberJoin:
		r.handleJoin(ctx, cfg, ev)
	case KindMemberLeave:
		r.handleLeave(ctx, cfg, ev)
	case KindBanAdd:
		r.handleBan(ctx, cfg, ev, platform.ActionBanAdd)
	case KindBanRemove:
		r.handleBan(ctx, cfg, ev, platform.ActionBanRemove)
	case KindMemberUpdate:
		r.handleMemberUpdate(ctx, cfg, ev)
	case KindMessageDelete:
		if cfg.Enabled(settings.CategoryMessageDelete) {
			r.emit(ctx, cfg, ev, Record{
				CommunityID: ev.CommunityID,
				Category:    settings.CategoryMessageDelete,
				SubjectID:   ev.MessageID,
				ActorID:     "",
				OccurredAt:  ev.OccurredAt,
			})
		}
	case KindMessageEdit:
		if cfg.Enabled(settings.CategoryMessageEdit) {
			r.emit(ctx, cfg, ev, Record{
				CommunityID: ev.CommunityID,
				Category:    settings.CategoryMessageEdit,
				SubjectID:   ev.MessageID,
				OccurredAt:  ev.OccurredAt,
			})
		}
	}
}

func (r *Router) handleJoin(ctx context.Context, cfg settings.Record, ev Event) {
	if !cfg.Enabled(settings.CategoryMemberJoin) {
		// The toggle gates everything, including the invite diff.
		return
	}

	rec := Record{
		CommunityID:     ev.CommunityID,
		Category:        settings.CategoryMemberJoin,
		SubjectID:       ev.UserID,
		SubjectName:     ev.UserName,
		AttributionKind: invites.AttributionUnknown,
		OccurredAt:      ev.OccurredAt,
	}

	if cfg.Enabled(settings.CategoryInvites) {
		diffCtx, cancel := r.callContext(ctx)
		att := r.Ledger.DiffAndAttribute(diffCtx, ev.CommunityID)
		cancel()
		rec.AttributionKind = att.Kind
		rec.InviteCode = att.Code
		rec.InviterID = att.InviterID
		rec.PermissionIssue = att.PermissionIssue
	}

	r.emit(ctx, cfg, ev, rec)
}

func (r *Router) handleLeave(ctx context.Context, cfg settings.Record, ev Event) {
	// A ban also surfaces as a leave; the tight window keeps the check
	// adjacent to the membership change and the ban event owns the record.
	if _, ok := r.correlate(ctx, ev.CommunityID, platform.ActionBanAdd, ev.UserID, auditlog.WindowJoinAdjacent); ok {
		return
	}

	if entry, ok := r.correlate(ctx, ev.CommunityID, platform.ActionKick, ev.UserID, auditlog.WindowModeration); ok {
		if !cfg.Enabled(settings.CategoryKick) {
			return
		}
		r.emit(ctx, cfg, ev, Record{
			CommunityID: ev.CommunityID,
			Category:    settings.CategoryKick,
			SubjectID:   ev.UserID,
			SubjectName: ev.UserName,
			ActorID:     entry.ExecutorID,
			Reason:      entry.Reason,
			OccurredAt:  ev.OccurredAt,
		})
		return
	}

	if !cfg.Enabled(settings.CategoryMemberLeave) {
		return
	}
	r.emit(ctx, cfg, ev, Record{
		CommunityID: ev.CommunityID,
		Category:    settings.CategoryMemberLeave,
		SubjectID:   ev.UserID,
		SubjectName: ev.UserName,
		OccurredAt:  ev.OccurredAt,
	})
}

func (r *Router) handleBan(ctx context.Context, cfg settings.Record, ev Event, kind platform.ActionKind) {
	if !cfg.Enabled(settings.CategoryBan) {
		return
	}
	rec := Record{
		CommunityID: ev.CommunityID,
		Category:    settings.CategoryBan,
		SubjectID:   ev.UserID,
		SubjectName: ev.UserName,
		OccurredAt:  ev.OccurredAt,
	}
	if entry, ok := r.correlate(ctx, ev.CommunityID, kind, ev.UserID, auditlog.WindowModeration); ok {
		rec.ActorID = entry.ExecutorID
		rec.Reason = entry.Reason
	}
	r.emit(ctx, cfg, ev, rec)
}

func (r *Router) handleMemberUpdate(ctx context.Context, cfg settings.Record, ev Event) {
	type change struct {
		category settings.Category
		kind     platform.ActionKind
		present  bool
	}
	changes := []change{
		{settings.CategoryNicknameChange, platform.ActionMemberUpdate, ev.OldNickname != ev.NewNickname},
		{settings.CategoryTimeout, platform.ActionMemberUpdate, ev.TimeoutUntil != nil},
		{settings.CategoryRoleChange, platform.ActionRoleUpdate, len(ev.RolesAdded)+len(ev.RolesRemoved) > 0},
	}

	for _, ch := range changes {
		if !ch.present || !cfg.Enabled(ch.category) {
			continue
		}
		rec := Record{
			CommunityID: ev.CommunityID,
			Category:    ch.category,
			SubjectID:   ev.UserID,
			SubjectName: ev.UserName,
			OccurredAt:  ev.OccurredAt,
		}
		if entry, ok := r.correlate(ctx, ev.CommunityID, ch.kind, ev.UserID, auditlog.WindowModeration); ok {
			rec.ActorID = entry.ExecutorID
			rec.Reason = entry.Reason
		}
		r.emit(ctx, cfg, ev, rec)
	}
}

func (r *Router) correlate(ctx context.Context, communityID string, kind platform.ActionKind, targetID string, window time.Duration) (platform.AuditEntry, bool) {
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	return r.Correlator.FindActor(callCtx, communityID, kind, targetID, window)
}

func (r *Router) emit(ctx context.Context, cfg settings.Record, ev Event, rec Record) {
	dest, ok := cfg.Destination(r.DefaultChannelID)
	if !ok {
		// No valid destination anywhere: the event is dropped silently.
		return
	}
	dest, ok = r.verifyDestination(ctx, cfg, dest)
	if !ok {
		return
	}

	rec.ChannelID = dest
	rec.EmittedAt = r.now()
	rec.Summary = summarize(rec)

	emitCtx, cancel := r.callContext(ctx)
	defer cancel()
	if err := r.Sink.Emit(emitCtx, rec); err != nil {
		r.log().Warn("record emission failed", "community_id", rec.CommunityID, "category", rec.Category, "err", err)
		// Nothing was delivered, so the delivery claim is released and a
		// redelivered copy of the event can be processed from scratch.
		r.releaseClaim(ctx, ev)
		return
	}

	if r.Journals != nil {
		if err := r.Journals.Append(emitCtx, rec); err != nil {
			r.log().Debug("journal append failed", "community_id", rec.CommunityID, "err", err)
		}
	}
}

// verifyDestination best-effort confirms the channel still exists. A deleted
// configured channel falls back to the process default; transient resolver
// failures let the record through and leave delivery to the sink.
func (r *Router) verifyDestination(ctx context.Context, cfg settings.Record, dest string) (string, bool) {
	if r.Channels == nil {
		return dest, true
	}
	callCtx, cancel := r.callContext(ctx)
	defer cancel()

	_, err := r.Channels.ResolveChannel(callCtx, dest)
	if err == nil {
		return dest, true
	}
	if !errors.Is(err, platform.ErrNotFound) {
		return dest, true
	}
	if dest != r.DefaultChannelID && settings.IsChannelID(r.DefaultChannelID) {
		fbCtx, cancelFb := r.callContext(ctx)
		defer cancelFb()
		if _, err := r.Channels.ResolveChannel(fbCtx, r.DefaultChannelID); err == nil || !errors.Is(err, platform.ErrNotFound) {
			return r.DefaultChannelID, true
		}
	}
	return "", false
}

func (r *Router) releaseClaim(ctx context.Context, ev Event) {
	if r.Dedupe == nil || ev.DeliveryID == "" {
		return
	}
	callCtx, cancel := r.callContext(ctx)
	defer cancel()
	if err := r.Dedupe.ReleaseClaim(callCtx, dedupeKey(ev.DeliveryID)); err != nil {
		r.log().Debug("claim release failed", "delivery_id", ev.DeliveryID, "err", err)
	}
}

func (r *Router) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := r.CallTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Router) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
