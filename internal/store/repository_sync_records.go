package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

var syncRecordColumns = []string{
	"id", "table_name", "record_id", "operation", "captured_at",
	"content_hash", "base_hash", "status", "attempts", "last_error",
}

// syncRecordRepository keeps the queue in the secondary's sync_records
// table. Timestamps are stored as unix microseconds.
type syncRecordRepository struct {
	*DB
	logger *logger.Logger
	// now stamps updated_at; replaced in tests.
	now func() time.Time
}

// NewSyncRecordRepository returns the pending-change queue stored in db.
func NewSyncRecordRepository(db *DB, log *logger.Logger) SyncRecordRepository {
	return &syncRecordRepository{DB: db, logger: log, now: time.Now}
}

// Append stores rec as Pending unless it carries a status.
func (r *syncRecordRepository) Append(ctx context.Context, rec models.SyncRecord) (int64, error) {
	if rec.Status == "" {
		rec.Status = models.SyncStatusPending
	}

	query, args, err := r.builder().
		Insert(tableSyncRecords).
		Columns("table_name", "record_id", "operation", "captured_at", "content_hash", "base_hash", "status", "updated_at").
		Values(rec.Table, rec.RecordID, string(rec.Op), toMicros(rec.CapturedAt), rec.ContentHash, rec.BaseHash, string(rec.Status), toMicros(r.now())).
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
			Str("func", "syncRecordRepository.Append").
			Str("table", rec.Table).
			Str("record_id", rec.RecordID).
			Msg("failed to append sync record")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return id, nil
}

// ListPending implements [SyncRecordRepository].
func (r *syncRecordRepository) ListPending(ctx context.Context) ([]models.SyncRecord, error) {
	query, args, err := r.builder().
		Select(syncRecordColumns...).
		From(tableSyncRecords).
		Where(sq.Eq{"status": string(models.SyncStatusPending)}).
		OrderBy("captured_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var records []models.SyncRecord
	err = r.withRetry(ctx, func(ctx context.Context) error {
		rows, qErr := r.QueryContext(ctx, query, args...)
		if qErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, qErr)
		}
		defer rows.Close()

		records = records[:0]
		for rows.Next() {
			rec, scanErr := scanSyncRecord(rows)
			if scanErr != nil {
				return scanErr
			}
			records = append(records, rec)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "syncRecordRepository.ListPending").
			Msg("failed to list pending sync records")
		return nil, err
	}

	return records, nil
}

// MarkStatus returns ErrSyncRecordNotFound when no row matched id.
func (r *syncRecordRepository) MarkStatus(ctx context.Context, id int64, status models.SyncStatus) error {
	query, args, err := r.builder().
		Update(tableSyncRecords).
		Set("status", string(status)).
		Set("updated_at", toMicros(r.now())).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execOne(ctx, "syncRecordRepository.MarkStatus", id, query, args)
}

// MarkError bumps attempts and keeps the latest cause.
func (r *syncRecordRepository) MarkError(ctx context.Context, id int64, cause string) error {
	query, args, err := r.builder().
		Update(tableSyncRecords).
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", cause).
		Set("updated_at", toMicros(r.now())).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return r.execOne(ctx, "syncRecordRepository.MarkError", id, query, args)
}

// CountByStatus implements [SyncRecordRepository].
func (r *syncRecordRepository) CountByStatus(ctx context.Context, status models.SyncStatus) (int64, error) {
	query, args, err := r.builder().
		Select("COUNT(*)").
		From(tableSyncRecords).
		Where(sq.Eq{"status": string(status)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	err = r.withRetry(ctx, func(ctx context.Context) error {
		return r.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "syncRecordRepository.CountByStatus").
			Str("status", string(status)).
			Msg("failed to count sync records")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// execOne runs an UPDATE expected to touch exactly the record id.
func (r *syncRecordRepository) execOne(ctx context.Context, fn string, id int64, query string, args []any) error {
	var affected int64
	err := r.withRetry(ctx, func(ctx context.Context) error {
		res, execErr := r.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		r.logger.Err(err).Str("func", fn).Int64("sync_record_id", id).Msg("failed to update sync record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id=%d", ErrSyncRecordNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncRecord(s rowScanner) (models.SyncRecord, error) {
	var (
		rec        models.SyncRecord
		op, status string
		capturedAt int64
	)
	err := s.Scan(
		&rec.ID,
		&rec.Table,
		&rec.RecordID,
		&op,
		&capturedAt,
		&rec.ContentHash,
		&rec.BaseHash,
		&status,
		&rec.Attempts,
		&rec.LastError,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	rec.Op = models.Operation(op)
	rec.Status = models.SyncStatus(status)
	rec.CapturedAt = fromMicros(capturedAt)
	return rec, nil
}
