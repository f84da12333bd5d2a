package settings

// Record is the per-community logging configuration.
//
// Invariants:
// - Every toggle defaults to enabled; an absent field means "log it".
// - A missing or malformed LogChannelID falls back to the process-wide
//   default destination; with neither, events for the community are dropped.
// - Records are created lazily on first reference and never deleted by the
//   pipeline; mutation belongs to the external administrative surface.
type Record struct {
	CommunityID string `json:"community_id" db:"community_id"`

	LogJoins           bool `json:"log_joins" db:"log_joins"`
	LogLeaves          bool `json:"log_leaves" db:"log_leaves"`
	LogKicks           bool `json:"log_kicks" db:"log_kicks"`
	LogBans            bool `json:"log_bans" db:"log_bans"`
	LogRoleChanges     bool `json:"log_role_changes" db:"log_role_changes"`
	LogNicknameChanges bool `json:"log_nickname_changes" db:"log_nickname_changes"`
	LogTimeouts        bool `json:"log_timeouts" db:"log_timeouts"`
	LogMessageDeletes  bool `json:"log_message_deletes" db:"log_message_deletes"`
	LogMessageEdits    bool `json:"log_message_edits" db:"log_message_edits"`
	AttributeInvites   bool `json:"attribute_invites" db:"attribute_invites"`

	// LogChannelID is the destination channel. Validated with IsChannelID
	// before use; invalid values are treated as absent.
	LogChannelID string `json:"log_channel_id,omitempty" db:"log_channel_id"`
}

// Defaults returns the record used on first contact with a community.
func Defaults(communityID string) Record {
	return Record{
		CommunityID:        communityID,
		LogJoins:           true,
		LogLeaves:          true,
		LogKicks:           true,
		LogBans:            true,
		LogRoleChanges:     true,
		LogNicknameChanges: true,
		LogTimeouts:        true,
		LogMessageDeletes:  true,
		LogMessageEdits:    true,
		AttributeInvites:   true,
	}
}

// Category names one toggle of the record.
type Category string

const (
	CategoryMemberJoin     Category = "member_join"
	CategoryMemberLeave    Category = "member_leave"
	CategoryKick           Category = "kick"
	CategoryBan            Category = "ban"
	CategoryRoleChange     Category = "role_change"
	CategoryNicknameChange Category = "nickname_change"
	CategoryTimeout        Category = "timeout"
	CategoryMessageDelete  Category = "message_delete"
	CategoryMessageEdit    Category = "message_edit"
	CategoryInvites        Category = "invite_attribution"
)

// Enabled reports whether events of the given category should be logged.
// Unknown categories are disabled; new event types must be mapped explicitly.
func (r Record) Enabled(cat Category) bool {
	switch cat {
	case CategoryMemberJoin:
		return r.LogJoins
	case CategoryMemberLeave:
		return r.LogLeaves
	case CategoryKick:
		return r.LogKicks
	case CategoryBan:
		return r.LogBans
	case CategoryRoleChange:
		return r.LogRoleChanges
	case CategoryNicknameChange:
		return r.LogNicknameChanges
	case CategoryTimeout:
		return r.LogTimeouts
	case CategoryMessageDelete:
		return r.LogMessageDeletes
	case CategoryMessageEdit:
		return r.LogMessageEdits
	case CategoryInvites:
		return r.AttributeInvites
	default:
		return false
	}
}

// Destination resolves the channel the record should be emitted to.
// Resolution order: the community's own channel, then the process default.
// ok is false when neither is a valid channel identifier; the caller must
// drop the event silently in that case.
func (r Record) Destination(defaultChannelID string) (string, bool) {
	if IsChannelID(r.LogChannelID) {
		return r.LogChannelID, true
	}
	if IsChannelID(defaultChannelID) {
		return defaultChannelID, true
	}
	return "", false
}

// IsChannelID reports whether v matches the platform's snowflake identifier
// shape: 17 to 20 decimal digits.
func IsChannelID(v string) bool {
	if len(v) < 17 || len(v) > 20 {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return true
}
