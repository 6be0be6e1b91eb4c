package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/bank-mmudzi/models"
)

// Secondary-only bookkeeping tables.
const (
	tableSyncRecords   = "sync_records"
	tableSyncConflicts = "sync_conflicts"
	tableSyncLog       = "sync_log"
)

var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validIdentifier(name string) error {
	if !identifierRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

// selectRowByID builds SELECT * ... WHERE id = ? LIMIT 1.
func (db *DB) selectRowByID(table, id string) (string, []any, error) {
	if err := validIdentifier(table); err != nil {
		return "", nil, err
	}
	return db.builder().
		Select("*").
		From(table).
		Where(sq.Eq{models.IDColumn: id}).
		Limit(1).
		ToSql()
}

// selectRows builds an equality filter over the given columns. Column
// names are validated like table names.
func (db *DB) selectRows(table string, filter models.Row) (string, []any, error) {
	if err := validIdentifier(table); err != nil {
		return "", nil, err
	}

	q := db.builder().Select("*").From(table).OrderBy(models.IDColumn)
	if len(filter) > 0 {
		eq := sq.Eq{}
		for _, col := range filter.Keys() {
			if err := validIdentifier(col); err != nil {
				return "", nil, err
			}
			eq[col] = filter[col]
		}
		q = q.Where(eq)
	}
	return q.ToSql()
}

// upsertRow builds INSERT ... ON CONFLICT (id) DO UPDATE, which both
// Postgres and SQLite (3.24+) accept verbatim.
func (db *DB) upsertRow(table string, row models.Row) (string, []any, error) {
	if err := validIdentifier(table); err != nil {
		return "", nil, err
	}
	if row.ID() == "" {
		return "", nil, ErrMissingID
	}

	cols := row.Keys()
	vals := make([]any, 0, len(cols))
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		if err := validIdentifier(col); err != nil {
			return "", nil, err
		}
		v, err := columnValue(row[col])
		if err != nil {
			return "", nil, err
		}
		vals = append(vals, v)
		if col != models.IDColumn {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
	}

	suffix := "ON CONFLICT (" + models.IDColumn + ") DO NOTHING"
	if len(sets) > 0 {
		suffix = "ON CONFLICT (" + models.IDColumn + ") DO UPDATE SET " + strings.Join(sets, ", ")
	}

	return db.builder().
		Insert(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSql()
}

func (db *DB) deleteRowByID(table, id string) (string, []any, error) {
	if err := validIdentifier(table); err != nil {
		return "", nil, err
	}
	return db.builder().
		Delete(table).
		Where(sq.Eq{models.IDColumn: id}).
		ToSql()
}

// columnValue converts a row value into something database/sql can bind.
// Nested structures are stored as JSON text.
func columnValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any, models.Row, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodingSnapshot, err)
		}
		return string(data), nil
	case time.Time:
		return val.UTC(), nil
	default:
		return v, nil
	}
}

// scannedValue folds driver return types so that rows from both stores
// look alike.
func scannedValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// encodeSnapshot returns "" for a nil row.
func encodeSnapshot(row models.Row) (string, error) {
	if row == nil {
		return "", nil
	}
	data, err := json.Marshal(row)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodingSnapshot, err)
	}
	return string(data), nil
}
