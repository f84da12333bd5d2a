package invites

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"communitylog/internal/platform"
)

// Snapshot maps invite code to cumulative use count for one community at one
// point in time. Codes absent from a later snapshot are deleted or expired
// invites, never zero-use ones.
type Snapshot map[string]int

// AttributionKind tags the outcome of a join attribution.
type AttributionKind string

const (
	AttributionInvite  AttributionKind = "invite"
	AttributionVanity  AttributionKind = "vanity"
	AttributionUnknown AttributionKind = "unknown"
)

// Attribution is the inferred cause behind a member join.
type Attribution struct {
	Kind AttributionKind

	// Code is the invite or vanity code; empty for unknown.
	Code string

	// InviterID identifies who created the attributed invite, when known.
	InviterID string

	// PermissionIssue marks an unknown result caused by a provider failure
	// (missing permission, timeout, outage) rather than a genuine no-match.
	PermissionIssue bool
}

// Ledger owns one invite snapshot per community and attributes joins by
// diffing consecutive snapshots.
//
// Concurrency: refresh and diff both read-then-replace the stored snapshot.
// Concurrent invocations for the same community are not serialized; the last
// completed write wins. Occasional misattribution under heavy concurrent
// activity in one community is an accepted trade against added latency.
type Ledger struct {
	provider platform.Provider
	vanity   *VanityCache // optional
	log      *slog.Logger

	mu        sync.Mutex
	snapshots map[string]Snapshot
}

func NewLedger(provider platform.Provider, vanity *VanityCache, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{
		provider:  provider,
		vanity:    vanity,
		log:       log,
		snapshots: map[string]Snapshot{},
	}
}

// Refresh fetches the community's current invites and replaces the stored
// snapshot unconditionally. On fetch failure the snapshot is replaced with an
// empty one: permission loss and outage are indistinguishable from "no
// invites", and explicit history loss beats stale data here.
//
// Redundant refreshes are idempotent; callers need not debounce.
func (l *Ledger) Refresh(ctx context.Context, communityID string) {
	if communityID == "" || l.provider == nil {
		return
	}

	fetched, err := l.provider.ListInvites(ctx, communityID)
	if err != nil {
		l.log.Debug("invite refresh failed", "community_id", communityID, "err", err)
		l.replace(communityID, Snapshot{})
		return
	}
	l.replace(communityID, toSnapshot(fetched))
}

// DiffAndAttribute fetches a fresh snapshot, attributes a join against the
// previously stored one, and replaces the stored snapshot regardless of the
// outcome. It never returns an error; degraded paths collapse into an
// unknown attribution with PermissionIssue set.
func (l *Ledger) DiffAndAttribute(ctx context.Context, communityID string) Attribution {
	if communityID == "" || l.provider == nil {
		return Attribution{Kind: AttributionUnknown}
	}

	fetched, err := l.provider.ListInvites(ctx, communityID)
	if err != nil {
		// State still advances: the next join diffs against reality as we
		// best know it, which is "no invites visible".
		l.replace(communityID, Snapshot{})
		return Attribution{Kind: AttributionUnknown, PermissionIssue: true}
	}

	l.mu.Lock()
	prev := l.snapshots[communityID]
	l.mu.Unlock()

	attributed, ok := firstIncreasedCode(prev, fetched)
	l.replace(communityID, toSnapshot(fetched))

	if ok {
		return Attribution{Kind: AttributionInvite, Code: attributed.Code, InviterID: attributed.InviterID}
	}

	if code := l.lookupVanity(ctx, communityID); code != "" {
		return Attribution{Kind: AttributionVanity, Code: code}
	}

	return Attribution{Kind: AttributionUnknown}
}

// SnapshotFor returns a copy of the stored snapshot. Intended for tests and
// introspection; the ledger's own state can only change via Refresh/Diff.
func (l *Ledger) SnapshotFor(communityID string) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := Snapshot{}
	for code, uses := range l.snapshots[communityID] {
		out[code] = uses
	}
	return out
}

func (l *Ledger) replace(communityID string, s Snapshot) {
	l.mu.Lock()
	l.snapshots[communityID] = s
	l.mu.Unlock()
}

func (l *Ledger) lookupVanity(ctx context.Context, communityID string) string {
	if l.vanity != nil {
		if code, ok := l.vanity.Get(ctx, communityID); ok {
			return code
		}
	}
	code, err := l.provider.VanityCode(ctx, communityID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			l.log.Debug("vanity lookup failed", "community_id", communityID, "err", err)
		}
		return ""
	}
	if code != "" && l.vanity != nil {
		l.vanity.Set(ctx, communityID, code)
	}
	return code
}

// firstIncreasedCode scans invites in provider order and returns the first
// one whose use count increased against the previous snapshot. Only codes
// present in both snapshots qualify: a brand-new code has no baseline and is
// deliberately not attributed.
func firstIncreasedCode(prev Snapshot, fetched []platform.Invite) (platform.Invite, bool) {
	if len(prev) == 0 {
		return platform.Invite{}, false
	}
	for _, inv := range fetched {
		old, seen := prev[inv.Code]
		if seen && inv.Uses > old {
			return inv, true
		}
	}
	return platform.Invite{}, false
}

func toSnapshot(invites []platform.Invite) Snapshot {
	s := Snapshot{}
	for _, inv := range invites {
		s[inv.Code] = inv.Uses
	}
	return s
}
