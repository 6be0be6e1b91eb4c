package models

import "time"

// Operation is the kind of mutation captured by the change tracker.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether o is one of the known operations.
func (o Operation) Valid() bool {
	switch o {
	case OperationInsert, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// SyncStatus is the lifecycle state of a [SyncRecord].
// Pending records move to exactly one of Synced or Conflicted.
type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusSynced     SyncStatus = "synced"
	SyncStatusConflicted SyncStatus = "conflicted"
)

// SyncRecord is one entry of the pending-change queue kept on the
// secondary store. Records are never deleted; several records may exist
// for the same (Table, RecordID) and are replayed in (CapturedAt, ID) order.
type SyncRecord struct {
	// ID is the secondary store's autoincrement key, i.e. insertion order.
	ID       int64     `json:"id"`
	Table    string    `json:"table"`
	RecordID string    `json:"record_id"`
	Op       Operation `json:"operation"`

	// CapturedAt is the wall-clock time the mutation was observed.
	CapturedAt time.Time `json:"captured_at"`

	// ContentHash is the hash of the row after the mutation.
	// Empty for deletes.
	ContentHash string `json:"content_hash,omitempty"`

	// BaseHash is the hash of the row before an update, when the caller
	// supplied a pre-image. Empty otherwise.
	BaseHash string `json:"base_hash,omitempty"`

	Status SyncStatus `json:"status"`

	// Attempts counts failed replays; LastError holds the latest cause.
	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// SyncOutcome is the overall result of one sync session.
type SyncOutcome string

const (
	SyncOutcomeCompleted              SyncOutcome = "completed"
	SyncOutcomeCompletedWithConflicts SyncOutcome = "completed_with_conflicts"
	SyncOutcomeFailed                 SyncOutcome = "failed"
)

// SyncSessionResult summarizes a sync session.
type SyncSessionResult struct {
	SessionID      string      `json:"session_id,omitempty"`
	RecordsSynced  int         `json:"records_synced"`
	ConflictsFound int         `json:"conflicts_found"`
	RecordsFailed  int         `json:"records_failed"`
	Outcome        SyncOutcome `json:"outcome,omitempty"`

	// AlreadyActive is set when the call returned immediately because
	// another session held the lock. No other field is meaningful then.
	AlreadyActive bool `json:"already_active,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// SyncStatusReport is the operator-facing view of the data layer.
type SyncStatusReport struct {
	Mode                ConnectionMode `json:"mode"`
	FallbackActive      bool           `json:"fallback_active"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	LastHealthCheck     *time.Time     `json:"last_health_check,omitempty"`
	PendingCount        int64          `json:"pending_count"`
	ConflictCount       int64          `json:"conflict_count"`
	LastSyncTime        *time.Time     `json:"last_sync_time,omitempty"`
	SyncRunning         bool           `json:"sync_running"`
}
