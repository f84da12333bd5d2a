package events

import "time"

// Kind enumerates the inbound platform event types the pipeline handles.
type Kind string

const (
	KindMemberJoin    Kind = "member_join"
	KindMemberLeave   Kind = "member_leave"
	KindBanAdd        Kind = "ban_add"
	KindBanRemove     Kind = "ban_remove"
	KindMemberUpdate  Kind = "member_update"
	KindMessageDelete Kind = "message_delete"
	KindMessageEdit   Kind = "message_edit"
	KindInviteCreate  Kind = "invite_create"
	KindInviteDelete  Kind = "invite_delete"
)

// Event is one inbound platform event, already decoded by the transport
// collaborator. The transport pushes these onto the router's channel; the
// pipeline core never touches the wire protocol.
type Event struct {
	Kind        Kind      `json:"kind"`
	CommunityID string    `json:"community_id"`
	OccurredAt  time.Time `json:"occurred_at"`

	// DeliveryID, when the transport provides one, keys best-effort dedupe
	// for at-least-once deliveries.
	DeliveryID string `json:"delivery_id,omitempty"`

	// Subject member (join/leave/ban/update events).
	UserID   string `json:"user_id,omitempty"`
	UserName string `json:"user_name,omitempty"`

	// Member update details. A single update may carry several changes;
	// each produces its own record.
	OldNickname  string     `json:"old_nickname,omitempty"`
	NewNickname  string     `json:"new_nickname,omitempty"`
	RolesAdded   []string   `json:"roles_added,omitempty"`
	RolesRemoved []string   `json:"roles_removed,omitempty"`
	TimeoutUntil *time.Time `json:"timeout_until,omitempty"`

	// Message events.
	ChannelID  string `json:"channel_id,omitempty"`
	MessageID  string `json:"message_id,omitempty"`
	AuthorID   string `json:"author_id,omitempty"`
	OldContent string `json:"old_content,omitempty"`
	NewContent string `json:"new_content,omitempty"`

	// Invite lifecycle events.
	InviteCode string `json:"invite_code,omitempty"`
}

// Valid reports whether the event is well-formed enough to dispatch.
func (e Event) Valid() bool {
	if e.CommunityID == "" {
		return false
	}
	switch e.Kind {
	case KindMemberJoin, KindMemberLeave, KindBanAdd, KindBanRemove, KindMemberUpdate:
		return e.UserID != ""
	case KindMessageDelete, KindMessageEdit:
		return e.MessageID != ""
	case KindInviteCreate, KindInviteDelete:
		return true
	default:
		return false
	}
}
