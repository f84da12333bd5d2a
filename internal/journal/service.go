package journal

import (
	"context"
	"errors"
	"time"

	"communitylog/internal/events"

	"github.com/google/uuid"
)

// Repository is the persistence contract for journal entries.
//
// It MUST be append-only for writes.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListRecent(ctx context.Context, communityID string, limit int) ([]Entry, error)
}

// Service journals emitted records. It satisfies events.Journal.
//
// IMPORTANT: callers treat journaling as best-effort; an Append failure must
// never block or fail record emission.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEntry = errors.New("journal: invalid entry")

// Append converts an emitted record into a journal entry and persists it.
func (s *Service) Append(ctx context.Context, rec events.Record) error {
	if s.repo == nil {
		return errors.New("journal: repository not configured")
	}
	if rec.CommunityID == "" || rec.Category == "" {
		return ErrInvalidEntry
	}

	now := s.clock().UTC()
	return s.repo.Append(ctx, Entry{
		ID:          uuid.NewString(),
		CommunityID: rec.CommunityID,
		Category:    string(rec.Category),
		ChannelID:   rec.ChannelID,
		SubjectID:   rec.SubjectID,
		ActorID:     rec.ActorID,
		Summary:     rec.Summary,
		EmittedAt:   rec.EmittedAt,
		CreatedAt:   now,
	})
}

// ListRecent returns a community's most recent entries, newest first.
func (s *Service) ListRecent(ctx context.Context, communityID string, limit int) ([]Entry, error) {
	if s.repo == nil {
		return nil, errors.New("journal: repository not configured")
	}
	if communityID == "" {
		return nil, ErrInvalidEntry
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, communityID, limit)
}
