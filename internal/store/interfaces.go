package store

import (
	"context"
	"time"

	"github.com/MKhiriev/bank-mmudzi/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Store is the uniform record access surface implemented by both the
// primary and the secondary store. Rows are addressed by table name and
// the value of their id column.
type Store interface {
	// Name identifies the store in logs ("primary" or "secondary").
	Name() string
	// Ping performs a trivial round-trip.
	Ping(ctx context.Context) error
	// Get returns the row with the given id. found is false when absent.
	Get(ctx context.Context, table, id string) (row models.Row, found bool, err error)
	// Put inserts the row or overwrites every column of the existing row
	// with the same id.
	Put(ctx context.Context, table string, row models.Row) error
	// Delete removes the row and reports whether it existed.
	Delete(ctx context.Context, table, id string) (bool, error)
	// Query returns all rows whose columns equal the filter values,
	// ordered by id. An empty filter returns the whole table.
	Query(ctx context.Context, table string, filter models.Row) ([]models.Row, error)
}

// SyncRecordRepository is the durable pending-change queue.
type SyncRecordRepository interface {
	Append(ctx context.Context, rec models.SyncRecord) (int64, error)
	// ListPending returns Pending records in (captured_at, id) order.
	ListPending(ctx context.Context) ([]models.SyncRecord, error)
	MarkStatus(ctx context.Context, id int64, status models.SyncStatus) error
	// MarkError records a failed attempt and leaves the record Pending.
	MarkError(ctx context.Context, id int64, cause string) error
	CountByStatus(ctx context.Context, status models.SyncStatus) (int64, error)
}

// ConflictRepository persists conflicts detected during sync.
type ConflictRepository interface {
	Create(ctx context.Context, c models.ConflictRecord) (int64, error)
	Get(ctx context.Context, id int64) (models.ConflictRecord, error)
	ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error)
	// FindUnresolved returns the unresolved conflict for (table, recordID), if any.
	FindUnresolved(ctx context.Context, table, recordID string) (models.ConflictRecord, bool, error)
	// MarkResolved flips an unresolved conflict to resolved. It reports
	// false when the conflict was already resolved.
	MarkResolved(ctx context.Context, id int64, strategy models.ResolutionStrategy, at time.Time) (bool, error)
	// RefreshSecondary replaces the secondary side of an unresolved
	// conflict with a later local change to the same record. A nil
	// snapshot records a local delete.
	RefreshSecondary(ctx context.Context, id int64, op models.Operation, snapshot models.Row, capturedAt time.Time) error
	CountUnresolved(ctx context.Context) (int64, error)
}

// SyncLogRepository is the append-only sync session trail.
type SyncLogRepository interface {
	Append(ctx context.Context, entry models.LogEntry) (int64, error)
	// Tail returns up to limit entries, newest first. An empty sessionID
	// matches every session.
	Tail(ctx context.Context, sessionID string, limit int) ([]models.LogEntry, error)
}

// ErrorClassificator decides how a failed statement should be handled.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
