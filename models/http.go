package models

// ResolveConflictRequest is the body of POST /api/conflicts/{id}/resolve.
type ResolveConflictRequest struct {
	// Strategy is one of the [ResolutionStrategy] names.
	Strategy string `json:"strategy"`

	// Merged is the operator supplied row for the manual strategy.
	// Ignored by every other strategy.
	Merged Row `json:"merged,omitempty"`
}

// ResolveConflictResponse reports whether the conflict ended up resolved.
type ResolveConflictResponse struct {
	ConflictID int64 `json:"conflict_id"`
	Resolved   bool  `json:"resolved"`
}

// TriggerSyncResponse is returned by POST /api/sync/trigger.
// Scheduled is false when a request was already queued or a session is running.
type TriggerSyncResponse struct {
	Scheduled bool `json:"scheduled"`
}

// RecheckResponse is returned by POST /api/sync/recheck with the mode
// observed right after the forced probe.
type RecheckResponse struct {
	Mode           ConnectionMode `json:"mode"`
	FallbackActive bool           `json:"fallback_active"`
}

// ConflictsResponse wraps the unresolved conflict list.
type ConflictsResponse struct {
	Conflicts []ConflictRecord `json:"conflicts"`
	Length    int              `json:"length"`
}

// SyncLogResponse wraps a tail of the sync log, newest first.
type SyncLogResponse struct {
	Entries []LogEntry `json:"entries"`
	Length  int        `json:"length"`
}

// VersionResponse is returned by GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
	Date    string `json:"date,omitempty"`
	Commit  string `json:"commit,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
