package events

import (
	"context"
	"log/slog"
)

// LogSink emits records as structured log lines. It stands in for the
// rendering/delivery collaborator in deployments that only need a trace, and
// keeps the pipeline runnable without one.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{log: l}
}

func (s *LogSink) Emit(ctx context.Context, rec Record) error {
	s.log.Info("record",
		"community_id", rec.CommunityID,
		"category", rec.Category,
		"channel_id", rec.ChannelID,
		"subject_id", rec.SubjectID,
		"actor_id", rec.ActorID,
		"summary", rec.Summary,
	)
	return nil
}
