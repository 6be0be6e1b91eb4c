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

var conflictColumns = []string{
	"id", "table_name", "record_id", "operation", "sync_record_id",
	"secondary_snapshot", "primary_snapshot", "secondary_timestamp", "primary_timestamp",
	"resolution_strategy", "resolved", "detected_at", "resolved_at",
}

// conflictRepository keeps conflicts in the secondary's sync_conflicts
// table, snapshots as JSON text.
type conflictRepository struct {
	*DB
	logger *logger.Logger
}

// NewConflictRepository returns the conflict queue stored in db.
func NewConflictRepository(db *DB, log *logger.Logger) ConflictRepository {
	return &conflictRepository{DB: db, logger: log}
}

// Create stores c and returns its id. Snapshots are kept as JSON text.
func (r *conflictRepository) Create(ctx context.Context, c models.ConflictRecord) (int64, error) {
	secondary, err := encodeSnapshot(c.SecondarySnapshot)
	if err != nil {
		return 0, err
	}
	primary, err := encodeSnapshot(c.PrimarySnapshot)
	if err != nil {
		return 0, err
	}
	if c.ResolutionStrategy == "" {
		c.ResolutionStrategy = models.ResolutionManual
	}

	query, args, err := r.builder().
		Insert(tableSyncConflicts).
		Columns("table_name", "record_id", "operation", "sync_record_id",
			"secondary_snapshot", "primary_snapshot", "secondary_timestamp", "primary_timestamp",
			"resolution_strategy", "resolved", "detected_at").
		Values(c.Table, c.RecordID, string(c.Op), c.SyncRecordID,
			secondary, primary, toMicros(c.SecondaryTimestamp), toMicros(c.PrimaryTimestamp),
			string(c.ResolutionStrategy), c.Resolved, toMicros(c.DetectedAt)).
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
			Str("func", "conflictRepository.Create").
			Str("table", c.Table).
			Str("record_id", c.RecordID).
			Msg("failed to store conflict")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return id, nil
}

// Get returns ErrConflictNotFound for an unknown id.
func (r *conflictRepository) Get(ctx context.Context, id int64) (models.ConflictRecord, error) {
	query, args, err := r.builder().
		Select(conflictColumns...).
		From(tableSyncConflicts).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.ConflictRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var c models.ConflictRecord
	err = r.withRetry(ctx, func(ctx context.Context) error {
		var scanErr error
		c, scanErr = scanConflict(r.QueryRowContext(ctx, query, args...))
		return scanErr
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.ConflictRecord{}, fmt.Errorf("%w: id=%d", ErrConflictNotFound, id)
	}
	if err != nil {
		r.logger.Err(err).
			Str("func", "conflictRepository.Get").
			Int64("conflict_id", id).
			Msg("failed to get conflict")
		return models.ConflictRecord{}, err
	}

	return c, nil
}

// ListUnresolved implements [ConflictRepository].
func (r *conflictRepository) ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error) {
	return r.list(ctx, "conflictRepository.ListUnresolved", sq.Eq{"resolved": false})
}

// FindUnresolved implements [ConflictRepository].
func (r *conflictRepository) FindUnresolved(ctx context.Context, table, recordID string) (models.ConflictRecord, bool, error) {
	found, err := r.list(ctx, "conflictRepository.FindUnresolved", sq.Eq{
		"resolved":   false,
		"table_name": table,
		"record_id":  recordID,
	})
	if err != nil {
		return models.ConflictRecord{}, false, err
	}
	if len(found) == 0 {
		return models.ConflictRecord{}, false, nil
	}
	return found[0], true, nil
}

// MarkResolved only touches unresolved rows, so concurrent resolutions of
// one conflict flip it once.
func (r *conflictRepository) MarkResolved(ctx context.Context, id int64, strategy models.ResolutionStrategy, at time.Time) (bool, error) {
	query, args, err := r.builder().
		Update(tableSyncConflicts).
		Set("resolved", true).
		Set("resolution_strategy", string(strategy)).
		Set("resolved_at", toMicros(at)).
		Where(sq.Eq{"id": id, "resolved": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = r.withRetry(ctx, func(ctx context.Context) error {
		res, execErr := r.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "conflictRepository.MarkResolved").
			Int64("conflict_id", id).
			Msg("failed to mark conflict resolved")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected > 0, nil
}

// RefreshSecondary fails with ErrConflictNotFound when id is unknown or
// already resolved.
func (r *conflictRepository) RefreshSecondary(ctx context.Context, id int64, op models.Operation, snapshot models.Row, capturedAt time.Time) error {
	encoded, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	query, args, err := r.builder().
		Update(tableSyncConflicts).
		Set("operation", string(op)).
		Set("secondary_snapshot", encoded).
		Set("secondary_timestamp", toMicros(capturedAt)).
		Where(sq.Eq{"id": id, "resolved": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = r.withRetry(ctx, func(ctx context.Context) error {
		res, execErr := r.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		r.logger.Err(err).
			Str("func", "conflictRepository.RefreshSecondary").
			Int64("conflict_id", id).
			Msg("failed to refresh conflict snapshot")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: unresolved id=%d", ErrConflictNotFound, id)
	}

	return nil
}

// CountUnresolved implements [ConflictRepository].
func (r *conflictRepository) CountUnresolved(ctx context.Context) (int64, error) {
	query, args, err := r.builder().
		Select("COUNT(*)").
		From(tableSyncConflicts).
		Where(sq.Eq{"resolved": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var count int64
	err = r.withRetry(ctx, func(ctx context.Context) error {
		return r.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		r.logger.Err(err).Str("func", "conflictRepository.CountUnresolved").Msg("failed to count conflicts")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return count, nil
}

// list returns the conflicts matching where in detection order. fn names
// the caller in the error log.
func (r *conflictRepository) list(ctx context.Context, fn string, where sq.Eq) ([]models.ConflictRecord, error) {
	query, args, err := r.builder().
		Select(conflictColumns...).
		From(tableSyncConflicts).
		Where(where).
		OrderBy("detected_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var conflicts []models.ConflictRecord
	err = r.withRetry(ctx, func(ctx context.Context) error {
		rows, qErr := r.QueryContext(ctx, query, args...)
		if qErr != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, qErr)
		}
		defer rows.Close()

		conflicts = conflicts[:0]
		for rows.Next() {
			c, scanErr := scanConflict(rows)
			if scanErr != nil {
				return scanErr
			}
			conflicts = append(conflicts, c)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Err(err).Str("func", fn).Msg("failed to list conflicts")
		return nil, err
	}

	return conflicts, nil
}

// scanConflict decodes the JSON snapshots and the microsecond timestamps.
// sql.ErrNoRows is returned unwrapped so Get can map it.
func scanConflict(s rowScanner) (models.ConflictRecord, error) {
	var (
		c                      models.ConflictRecord
		op, strategy           string
		secondary, primary     sql.NullString
		secondaryTS, primaryTS int64
		detectedAt             int64
		resolvedAt             sql.NullInt64
	)
	err := s.Scan(
		&c.ID,
		&c.Table,
		&c.RecordID,
		&op,
		&c.SyncRecordID,
		&secondary,
		&primary,
		&secondaryTS,
		&primaryTS,
		&strategy,
		&c.Resolved,
		&detectedAt,
		&resolvedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if c.SecondarySnapshot, err = models.DecodeRow([]byte(secondary.String)); err != nil {
		return c, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if c.PrimarySnapshot, err = models.DecodeRow([]byte(primary.String)); err != nil {
		return c, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	c.Op = models.Operation(op)
	c.ResolutionStrategy = models.ResolutionStrategy(strategy)
	c.SecondaryTimestamp = fromMicros(secondaryTS)
	c.PrimaryTimestamp = fromMicros(primaryTS)
	c.DetectedAt = fromMicros(detectedAt)
	if resolvedAt.Valid && resolvedAt.Int64 != 0 {
		t := fromMicros(resolvedAt.Int64)
		c.ResolvedAt = &t
	}

	return c, nil
}
