package journal

import "time"

// Entry is an immutable, append-only trace of one emitted log record.
//
// Invariants:
// - Entries are never updated or deleted.
// - community_id is required for scoping.
// - The journal is an operator convenience; the platform's own audit trail
//   remains the source of truth for moderation history.
//
// Storage recommendation (Postgres):
// - Table record_journal with an INSERT-only policy.
// - Optional: partition by time for retention.
type Entry struct {
	ID          string `json:"id" db:"id"`
	CommunityID string `json:"community_id" db:"community_id"`

	// Category mirrors the emitted record's toggle category.
	Category string `json:"category" db:"category"`

	// ChannelID is the destination the record was emitted to.
	ChannelID string `json:"channel_id" db:"channel_id"`

	SubjectID string `json:"subject_id,omitempty" db:"subject_id"`
	ActorID   string `json:"actor_id,omitempty" db:"actor_id"`

	// Summary is the rendered one-line description.
	Summary string `json:"summary" db:"summary"`

	EmittedAt time.Time `json:"emitted_at" db:"emitted_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
