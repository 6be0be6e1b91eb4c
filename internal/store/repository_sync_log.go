package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// DefaultTailLimit caps Tail when the caller passes a non-positive limit.
const DefaultTailLimit = 100

type syncLogRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncLogRepository returns the sync log stored in db.
func NewSyncLogRepository(db *DB, log *logger.Logger) SyncLogRepository {
	return &syncLogRepository{DB: db, logger: log}
}

// Append implements [SyncLogRepository].
func (r *syncLogRepository) Append(ctx context.Context, entry models.LogEntry) (int64, error) {
	query, args, err := r.builder().
		Insert(tableSyncLog).
		Columns("session_id", "level", "message", "created_at").
		Values(entry.SessionID, string(entry.Level), entry.Message, toMicros(entry.CreatedAt)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var id int64
	err = r.withRetry(ctx, func(ctx context.Context) error {
		res, execErr := r.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "syncLogRepository.Append").
			Str("session_id", entry.SessionID).
			Msg("failed to append sync log entry")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return id, nil
}

// Tail uses DefaultTailLimit for non-positive limits.
func (r *syncLogRepository) Tail(ctx context.Context, sessionID string, limit int) ([]models.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultTailLimit
	}

	q := r.builder().
		Select("id", "session_id", "level", "message", "created_at").
		From(tableSyncLog).
		OrderBy("id DESC").
		Limit(uint64(limit))
	if sessionID != "" {
		q = q.Where(sq.Eq{"session_id": sessionID})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var entries []models.LogEntry
	err = r.withRetry(ctx, func(ctx context.Context) error {
		rows, qErr := r.QueryContext(ctx, query, args...)
		if qErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, qErr)
		}
		defer rows.Close()

		entries = entries[:0]
		for rows.Next() {
			var (
				e         models.LogEntry
				level     string
				createdAt int64
			)
			if scanErr := rows.Scan(&e.ID, &e.SessionID, &level, &e.Message, &createdAt); scanErr != nil {
				return fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
			}
			e.Level = models.LogLevel(level)
			e.CreatedAt = fromMicros(createdAt)
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "syncLogRepository.Tail").
			Str("session_id", sessionID).
			Msg("failed to read sync log")
		return nil, err
	}

	return entries, nil
}
