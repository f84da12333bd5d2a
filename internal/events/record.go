package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"communitylog/internal/invites"
	"communitylog/internal/settings"
)

// Record is one fully attributed, destination-resolved log entry, ready for
// the rendering/delivery collaborator.
type Record struct {
	CommunityID string            `json:"community_id"`
	Category    settings.Category `json:"category"`

	// ChannelID is the resolved destination.
	ChannelID string `json:"channel_id"`

	// Subject is the member or message the event is about.
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`

	// ActorID and Reason come from audit correlation; empty when attribution
	// came back absent.
	ActorID string `json:"actor_id,omitempty"`
	Reason  string `json:"reason,omitempty"`

	// Join attribution.
	AttributionKind invites.AttributionKind `json:"attribution_kind,omitempty"`
	InviteCode      string                  `json:"invite_code,omitempty"`
	InviterID       string                  `json:"inviter_id,omitempty"`

	// PermissionIssue marks an unknown attribution caused by a provider
	// permission failure rather than genuine ambiguity.
	PermissionIssue bool `json:"permission_issue,omitempty"`

	// Summary is a short human-readable line for plain sinks.
	Summary string `json:"summary"`

	OccurredAt time.Time `json:"occurred_at"`
	EmittedAt  time.Time `json:"emitted_at"`
}

// Sink receives finished records. Rendering and delivery live behind this
// boundary and are out of the pipeline's hands once Emit returns.
type Sink interface {
	Emit(ctx context.Context, rec Record) error
}

// MemorySink collects records for tests.
type MemorySink struct {
	mu      sync.Mutex
	records []Record

	// Err, when set, is returned by Emit.
	Err error
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Emit(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func summarize(rec Record) string {
	subject := rec.SubjectName
	if subject == "" {
		subject = rec.SubjectID
	}
	switch rec.Category {
	case settings.CategoryMemberJoin:
		switch rec.AttributionKind {
		case invites.AttributionInvite:
			return fmt.Sprintf("%s joined via invite %s", subject, rec.InviteCode)
		case invites.AttributionVanity:
			return fmt.Sprintf("%s joined via vanity %s", subject, rec.InviteCode)
		default:
			if rec.PermissionIssue {
				return fmt.Sprintf("%s joined (invite unknown, missing permissions)", subject)
			}
			return fmt.Sprintf("%s joined", subject)
		}
	case settings.CategoryMemberLeave:
		return fmt.Sprintf("%s left", subject)
	case settings.CategoryKick:
		return withActor(fmt.Sprintf("%s was kicked", subject), rec)
	case settings.CategoryBan:
		if rec.ActorID == "" && rec.Reason == "" {
			return fmt.Sprintf("ban change for %s", subject)
		}
		return withActor(fmt.Sprintf("ban change for %s", subject), rec)
	case settings.CategoryRoleChange:
		return withActor(fmt.Sprintf("roles changed for %s", subject), rec)
	case settings.CategoryNicknameChange:
		return withActor(fmt.Sprintf("nickname changed for %s", subject), rec)
	case settings.CategoryTimeout:
		return withActor(fmt.Sprintf("timeout changed for %s", subject), rec)
	case settings.CategoryMessageDelete:
		return fmt.Sprintf("message %s deleted", rec.SubjectID)
	case settings.CategoryMessageEdit:
		return fmt.Sprintf("message %s edited", rec.SubjectID)
	default:
		return fmt.Sprintf("%s event for %s", rec.Category, subject)
	}
}

func withActor(base string, rec Record) string {
	if rec.ActorID == "" {
		return base
	}
	if rec.Reason == "" {
		return fmt.Sprintf("%s by %s", base, rec.ActorID)
	}
	return fmt.Sprintf("%s by %s (%s)", base, rec.ActorID, rec.Reason)
}
