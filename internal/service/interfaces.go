package service

import (
	"context"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/arbiter"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// ConnectionProvider is the part of the arbiter used by the services.
type ConnectionProvider interface {
	GetConnection(ctx context.Context) (arbiter.Connection, error)
	ForceRecheck()
	Status() arbiter.Snapshot
}

// ChangeTracker records mutations made while the secondary store serves
// writes. Tracking never fails the caller: errors are logged and dropped.
type ChangeTracker interface {
	// Track records an insert, update or delete of (table, recordID) made
	// through a connection in mode. row is the row after the mutation and
	// is ignored for deletes.
	Track(ctx context.Context, mode models.ConnectionMode, table, recordID string, op models.Operation, row models.Row)
	// TrackUpdate records an update together with the row it replaced.
	TrackUpdate(ctx context.Context, mode models.ConnectionMode, table, recordID string, before, after models.Row)
	Enrolled(table string) bool
}

// SyncEngine replays pending changes into the primary store.
type SyncEngine interface {
	// RunSync runs one session. A concurrent call returns immediately with
	// AlreadyActive set.
	RunSync(ctx context.Context) models.SyncSessionResult
	// Trigger asks the sync job for a run. It never blocks; it reports
	// false when a request is already waiting.
	Trigger() bool
	Requests() <-chan struct{}
	LastSyncTime() *time.Time
	Running() bool
}

// ConflictResolver exposes the conflict queue to operators.
type ConflictResolver interface {
	ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error)
	Get(ctx context.Context, id int64) (models.ConflictRecord, error)
	// Resolve applies strategy. It returns false for Manual, which needs
	// a merged row (see ResolveManual).
	Resolve(ctx context.Context, id int64, strategy models.ResolutionStrategy) (bool, error)
	ResolveManual(ctx context.Context, id int64, merged models.Row) (bool, error)
}

type SyncLogService interface {
	Append(ctx context.Context, sessionID, message string, level models.LogLevel)
	Tail(ctx context.Context, sessionID string, limit int) ([]models.LogEntry, error)
}

type StatusService interface {
	GetSyncStatus(ctx context.Context) (models.SyncStatusReport, error)
}

// RecordService is the CRUD entry point for business tables. Every call
// goes through the arbiter; writes on the secondary are tracked.
type RecordService interface {
	Get(ctx context.Context, table, id string) (models.Row, bool, error)
	Put(ctx context.Context, table string, row models.Row) error
	Delete(ctx context.Context, table, id string) (bool, error)
	Query(ctx context.Context, table string, filter models.Row) ([]models.Row, error)
}

// SyncJob runs the sync engine in the background until stopped.
type SyncJob interface {
	Start(ctx context.Context)
	Stop()
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) models.VersionResponse
}

// AuthService issues and checks operator tokens for the HTTP API.
type AuthService interface {
	Enabled() bool
	CreateToken(ctx context.Context, operator string) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}
