package settings

import (
	"context"
	"database/sql"
	"errors"
)

// NOTE: This store assumes the following table exists:
//
//   community_settings (
//     community_id         TEXT PRIMARY KEY,
//     log_joins            BOOLEAN NOT NULL DEFAULT TRUE,
//     log_leaves           BOOLEAN NOT NULL DEFAULT TRUE,
//     log_kicks            BOOLEAN NOT NULL DEFAULT TRUE,
//     log_bans             BOOLEAN NOT NULL DEFAULT TRUE,
//     log_role_changes     BOOLEAN NOT NULL DEFAULT TRUE,
//     log_nickname_changes BOOLEAN NOT NULL DEFAULT TRUE,
//     log_timeouts         BOOLEAN NOT NULL DEFAULT TRUE,
//     log_message_deletes  BOOLEAN NOT NULL DEFAULT TRUE,
//     log_message_edits    BOOLEAN NOT NULL DEFAULT TRUE,
//     attribute_invites    BOOLEAN NOT NULL DEFAULT TRUE,
//     log_channel_id       TEXT
//   )
//
// Rows are mutated only by the external administrative surface; this store
// only ensures a default row exists and reads it back.

// PostgresStore implements the local settings strategy.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Fetch(ctx context.Context, communityID string) (Record, error) {
	if s.db == nil {
		return Record{}, errors.New("settings: db not configured")
	}
	if communityID == "" {
		return Record{}, errors.New("settings: community_id required")
	}

	// Idempotent upsert so first contact with a community materializes its
	// default row. Concurrent upserts for the same community are harmless.
	const upsert = `
INSERT INTO community_settings (community_id)
VALUES ($1)
ON CONFLICT (community_id) DO NOTHING
`
	if _, err := s.db.ExecContext(ctx, upsert, communityID); err != nil {
		return Record{}, err
	}

	const read = `
SELECT community_id, log_joins, log_leaves, log_kicks, log_bans,
       log_role_changes, log_nickname_changes, log_timeouts,
       log_message_deletes, log_message_edits, attribute_invites,
       log_channel_id
FROM community_settings
WHERE community_id = $1
`
	var (
		r       Record
		channel sql.NullString
	)
	if err := s.db.QueryRowContext(ctx, read, communityID).Scan(
		&r.CommunityID,
		&r.LogJoins,
		&r.LogLeaves,
		&r.LogKicks,
		&r.LogBans,
		&r.LogRoleChanges,
		&r.LogNicknameChanges,
		&r.LogTimeouts,
		&r.LogMessageDeletes,
		&r.LogMessageEdits,
		&r.AttributeInvites,
		&channel,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if channel.Valid {
		r.LogChannelID = channel.String
	}
	return r, nil
}
