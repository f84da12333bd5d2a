package journal

import (
	"context"
	"database/sql"
	"errors"

	"communitylog/pkg/utils"
)

// NOTE: This repository assumes the following table exists:
//
//   record_journal (
//     id           TEXT PRIMARY KEY,
//     community_id TEXT NOT NULL,
//     category     TEXT NOT NULL,
//     channel_id   TEXT NOT NULL,
//     subject_id   TEXT,
//     actor_id     TEXT,
//     summary      TEXT NOT NULL,
//     emitted_at   TIMESTAMPTZ NOT NULL,
//     created_at   TIMESTAMPTZ NOT NULL
//   )
//
// with an index on (community_id, created_at DESC).

// retainPerCommunity bounds the journal: the store is an operator trace, not
// an archive, and the provider remains authoritative for audit history.
const retainPerCommunity = 1000

// PostgresRepo is the production journal store.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// Append inserts the entry and trims rows beyond the retention bound in the
// same transaction, so a trim never outlives a failed insert.
func (r *PostgresRepo) Append(ctx context.Context, e Entry) error {
	if r.db == nil {
		return errors.New("journal: db not configured")
	}
	const insert = `
INSERT INTO record_journal (
  id, community_id, category, channel_id, subject_id, actor_id, summary, emitted_at, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9
)
`
	const trim = `
DELETE FROM record_journal
WHERE community_id = $1
  AND id NOT IN (
    SELECT id FROM record_journal
    WHERE community_id = $1
    ORDER BY created_at DESC
    LIMIT $2
  )
`
	return utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert,
			e.ID,
			e.CommunityID,
			e.Category,
			e.ChannelID,
			nullable(e.SubjectID),
			nullable(e.ActorID),
			e.Summary,
			e.EmittedAt,
			e.CreatedAt,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, trim, e.CommunityID, retainPerCommunity)
		return err
	})
}

func (r *PostgresRepo) ListRecent(ctx context.Context, communityID string, limit int) ([]Entry, error) {
	if r.db == nil {
		return nil, errors.New("journal: db not configured")
	}
	const q = `
SELECT id, community_id, category, channel_id, subject_id, actor_id, summary, emitted_at, created_at
FROM record_journal
WHERE community_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, communityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			subject sql.NullString
			actor   sql.NullString
		)
		if err := rows.Scan(
			&e.ID,
			&e.CommunityID,
			&e.Category,
			&e.ChannelID,
			&subject,
			&actor,
			&e.Summary,
			&e.EmittedAt,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.SubjectID = subject.String
		e.ActorID = actor.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
