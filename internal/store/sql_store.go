// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// SQLStore implements [Store] on top of a [DB]. The same implementation
// serves the Postgres primary and the SQLite secondary.
type SQLStore struct {
	db     *DB
	name   string
	logger *logger.Logger
}

// NewSQLStore returns a Store named name backed by db.
func NewSQLStore(name string, db *DB, log *logger.Logger) *SQLStore {
	return &SQLStore{db: db, name: name, logger: log}
}

// Name implements [Store].
func (s *SQLStore) Name() string {
	return s.name
}

// DB exposes the underlying connection wrapper.
func (s *SQLStore) DB() *DB {
	return s.db
}

// Ping opens a connection if needed and runs SELECT 1. Any failure is
// reported as [ErrConnectivity].
func (s *SQLStore) Ping(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err == nil {
		var one int
		err = s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
	}
	if err != nil {
		s.logger.Debug().Err(err).
			Str("func", "SQLStore.Ping").
			Str("store", s.name).
			Msg("store ping failed")
		return fmt.Errorf("%w: %s: %w", ErrConnectivity, s.name, err)
	}
	return nil
}

// Get implements [Store].
func (s *SQLStore) Get(ctx context.Context, table, id string) (models.Row, bool, error) {
	query, args, err := s.db.selectRowByID(table, id)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var rows []models.Row
	err = s.db.withRetry(ctx, func(ctx context.Context) error {
		var qErr error
		rows, qErr = s.query(ctx, query, args)
		return qErr
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "SQLStore.Get").
			Str("store", s.name).
			Str("table", table).
			Str("record_id", id).
			Msg("failed to get row")
		return nil, false, err
	}

	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Put implements [Store].
func (s *SQLStore) Put(ctx context.Context, table string, row models.Row) error {
	query, args, err := s.db.upsertRow(table, row)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	err = s.db.withRetry(ctx, func(ctx context.Context) error {
		_, execErr := s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "SQLStore.Put").
			Str("store", s.name).
			Str("table", table).
			Str("record_id", row.ID()).
			Msg("failed to upsert row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

// Delete implements [Store].
func (s *SQLStore) Delete(ctx context.Context, table, id string) (bool, error) {
	query, args, err := s.db.deleteRowByID(table, id)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var affected int64
	err = s.db.withRetry(ctx, func(ctx context.Context) error {
		res, execErr := s.db.ExecContext(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "SQLStore.Delete").
			Str("store", s.name).
			Str("table", table).
			Str("record_id", id).
			Msg("failed to delete row")
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return affected > 0, nil
}

// Query implements [Store].
func (s *SQLStore) Query(ctx context.Context, table string, filter models.Row) ([]models.Row, error) {
	query, args, err := s.db.selectRows(table, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var rows []models.Row
	err = s.db.withRetry(ctx, func(ctx context.Context) error {
		var qErr error
		rows, qErr = s.query(ctx, query, args)
		return qErr
	})
	if err != nil {
		s.logger.Err(err).
			Str("func", "SQLStore.Query").
			Str("store", s.name).
			Str("table", table).
			Msg("failed to query rows")
		return nil, err
	}

	return rows, nil
}

func (s *SQLStore) query(ctx context.Context, query string, args []any) ([]models.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// scanRows reads every column into a Row, folding []byte to string.
func scanRows(rows *sql.Rows) ([]models.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	var out []models.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		row := make(models.Row, len(cols))
		for i, col := range cols {
			row[col] = scannedValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return out, nil
}
