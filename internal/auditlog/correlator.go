package auditlog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"communitylog/internal/platform"
)

// Default recency windows per action family. Join-adjacent checks use a
// tight window; moderation actions land in the audit trail with more lag.
const (
	WindowModeration   = 30 * time.Second
	WindowJoinAdjacent = 5 * time.Second
)

const auditPageLimit = 10

// Correlator searches the provider's recent audit trail for the actor behind
// a side-effect-only event (kick, ban, role/nickname/timeout change).
//
// Attribution is best-effort and point-in-time: a miss is a legitimate
// answer, and no provider error crosses this boundary.
type Correlator struct {
	provider platform.Provider
	log      *slog.Logger
	now      func() time.Time
}

func NewCorrelator(provider platform.Provider, log *slog.Logger) *Correlator {
	if log == nil {
		log = slog.Default()
	}
	return &Correlator{provider: provider, log: log, now: time.Now}
}

// FindActor returns the first audit entry of the given kind whose target
// matches targetID and whose age is within window.
//
// Entries are scanned in the order the provider returns them, which the
// provider contract fixes as newest-first; the first qualifying entry wins
// and no ranking across candidates is attempted. On any provider failure
// (including missing audit permission) the result is absent.
func (c *Correlator) FindActor(ctx context.Context, communityID string, kind platform.ActionKind, targetID string, window time.Duration) (platform.AuditEntry, bool) {
	if c.provider == nil || communityID == "" || targetID == "" || window <= 0 {
		return platform.AuditEntry{}, false
	}

	entries, err := c.provider.AuditPage(ctx, platform.AuditPageRequest{
		CommunityID: communityID,
		Kind:        kind,
		Limit:       auditPageLimit,
	})
	if err != nil {
		if errors.Is(err, platform.ErrPermissionDenied) {
			c.log.Debug("audit trail not readable", "community_id", communityID, "kind", kind)
		} else {
			c.log.Debug("audit page fetch failed", "community_id", communityID, "kind", kind, "err", err)
		}
		return platform.AuditEntry{}, false
	}

	now := c.now()
	for _, e := range entries {
		if e.TargetID != targetID {
			continue
		}
		if now.Sub(e.CreatedAt) > window {
			// Outside the window; never a candidate.
			continue
		}
		return e, true
	}
	return platform.AuditEntry{}, false
}
