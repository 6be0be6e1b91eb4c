package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sethvargo/go-retry"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/migrations"
)

// Dialect selects SQL placeholders, error classification and migrations.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const defaultRetryBase = 50 * time.Millisecond

// DB is a *sql.DB bound to a dialect. Statements run through DB are
// retried on transient failures and connectivity failures are reported
// as [ErrConnectivity].
type DB struct {
	*sql.DB
	dialect            Dialect
	errorClassificator ErrorClassificator
	retryAttempts      uint64
	retryBase          time.Duration
	opTimeout          time.Duration
	logger             *logger.Logger
}

// Option customizes a DB.
type Option func(*DB)

// WithRetryAttempts sets how many times a Retryable failure is retried.
func WithRetryAttempts(n int) Option {
	return func(db *DB) {
		if n >= 0 {
			db.retryAttempts = uint64(n)
		}
	}
}

// WithRetryBase sets the first backoff delay; later delays double.
func WithRetryBase(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.retryBase = d
		}
	}
}

// WithOperationTimeout bounds every single attempt of a statement.
func WithOperationTimeout(d time.Duration) Option {
	return func(db *DB) {
		db.opTimeout = d
	}
}

// NewDB wraps an open connection pool.
func NewDB(conn *sql.DB, dialect Dialect, log *logger.Logger, opts ...Option) *DB {
	db := &DB{
		DB:            conn,
		dialect:       dialect,
		retryAttempts: 3,
		retryBase:     defaultRetryBase,
		logger:        log,
	}
	switch dialect {
	case DialectPostgres:
		db.errorClassificator = NewPostgresErrorClassifier()
	default:
		db.errorClassificator = NewSQLiteErrorClassifier()
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Dialect returns the dialect the DB was opened with.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies the embedded migrations of the DB's dialect.
func (db *DB) Migrate() error {
	if db.dialect == DialectPostgres {
		return migrations.MigratePrimary(db.DB, db.logger)
	}
	return migrations.MigrateSecondary(db.DB, db.logger)
}

// builder returns a squirrel builder with the dialect's placeholders.
func (db *DB) builder() sq.StatementBuilderType {
	if db.dialect == DialectPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

// withRetry runs op, retrying Retryable failures with exponential backoff.
// The returned error wraps ErrConnectivity when the store is unreachable.
func (db *DB) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(db.retryAttempts, retry.NewExponential(db.retryBase))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attemptCtx := ctx
		if db.opTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, db.opTimeout)
			defer cancel()
		}

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if db.errorClassificator.Classify(err) == Retryable {
			return retry.RetryableError(err)
		}
		return err
	})

	return db.classify(err)
}

// classify wraps Unavailable errors in ErrConnectivity.
func (db *DB) classify(err error) error {
	if err == nil || errors.Is(err, ErrConnectivity) {
		return err
	}
	if db.errorClassificator.Classify(err) == Unavailable {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	return err
}

// toMicros stores the zero time as 0.
func toMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixMicro()
}

func fromMicros(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
