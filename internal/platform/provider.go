package platform

import (
	"context"
	"errors"
	"time"
)

// Provider defines the provider-agnostic interface used by the pipeline core.
//
// Rules:
// - No raw platform HTTP calls outside platform adapters.
// - All requests must be community-scoped (community_id required).
// - Keep request/response types provider-agnostic; callers never see wire payloads.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	// ListInvites returns the community's active invites in the provider's
	// own ordering. That ordering is significant: join attribution picks the
	// first increased code in it.
	ListInvites(ctx context.Context, communityID string) ([]Invite, error)

	// VanityCode returns the community's vanity invite code, or "" when the
	// community has none.
	VanityCode(ctx context.Context, communityID string) (string, error)

	// AuditPage returns a bounded page of recent audit trail entries for one
	// action kind, newest first.
	AuditPage(ctx context.Context, req AuditPageRequest) ([]AuditEntry, error)

	// ResolveChannel confirms a destination channel exists and is reachable.
	ResolveChannel(ctx context.Context, channelID string) (Channel, error)
}

// Sentinel errors adapters must return so callers can degrade precisely.
// Anything else is treated as transient.
var (
	ErrPermissionDenied = errors.New("platform: permission denied")
	ErrNotFound         = errors.New("platform: not found")
)

// ActionKind enumerates the audit trail action categories the pipeline
// correlates. Values match the provider's audit query parameters.
type ActionKind string

const (
	ActionKick         ActionKind = "member_kick"
	ActionBanAdd       ActionKind = "member_ban_add"
	ActionBanRemove    ActionKind = "member_ban_remove"
	ActionRoleUpdate   ActionKind = "member_role_update"
	ActionMemberUpdate ActionKind = "member_update" // nickname and timeout changes
)

// Invite is one active invite link with its cumulative use counter.
type Invite struct {
	Code      string `json:"code"`
	Uses      int    `json:"uses"`
	InviterID string `json:"inviter_id,omitempty"`
}

// AuditEntry is one historical administrative action. Consumed read-only;
// the provider remains the source of truth for audit history.
type AuditEntry struct {
	Kind       ActionKind `json:"action_kind"`
	TargetID   string     `json:"target_id"`
	ExecutorID string     `json:"executor_id"`
	Reason     string     `json:"reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditPageRequest struct {
	CommunityID string
	Kind        ActionKind

	// Limit caps the page size; adapters apply a small default when zero.
	Limit int
}

// Channel is a resolved destination channel.
type Channel struct {
	ID          string `json:"id"`
	CommunityID string `json:"community_id"`
	Name        string `json:"name,omitempty"`
}
