package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type syncLogService struct {
	repo   store.SyncLogRepository
	now    func() time.Time
	logger *logger.Logger
}

// NewSyncLogService returns a sync log writing to repo.
func NewSyncLogService(repo store.SyncLogRepository, log *logger.Logger) SyncLogService {
	return &syncLogService{repo: repo, now: time.Now, logger: log}
}

// Append writes an entry. The sync log is observability only, so a failed
// write is logged and otherwise ignored.
func (s *syncLogService) Append(ctx context.Context, sessionID, message string, level models.LogLevel) {
	if level == "" {
		level = models.LogLevelInfo
	}

	_, err := s.repo.Append(ctx, models.LogEntry{
		SessionID: sessionID,
		Level:     level,
		Message:   message,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Err(err).
			Str("func", "syncLogService.Append").
			Str("session_id", sessionID).
			Msg("failed to append sync log entry")
	}
}

// Tail returns the newest entries first; see store.SyncLogRepository.Tail.
func (s *syncLogService) Tail(ctx context.Context, sessionID string, limit int) ([]models.LogEntry, error) {
	return s.repo.Tail(ctx, sessionID, limit)
}

func zerologLevel(level models.LogLevel) zerolog.Level {
	switch level {
	case models.LogLevelDebug:
		return zerolog.DebugLevel
	case models.LogLevelWarn:
		return zerolog.WarnLevel
	case models.LogLevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}
