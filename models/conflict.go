package models

import (
	"fmt"
	"strings"
	"time"
)

// ResolutionStrategy selects how a [ConflictRecord] is settled.
type ResolutionStrategy string

const (
	// ResolutionPrimaryWins keeps the primary store's version untouched.
	ResolutionPrimaryWins ResolutionStrategy = "primary_wins"
	// ResolutionSecondaryWins overwrites the primary with the secondary snapshot.
	ResolutionSecondaryWins ResolutionStrategy = "secondary_wins"
	// ResolutionLatestTimestamp behaves as whichever side is newer.
	ResolutionLatestTimestamp ResolutionStrategy = "latest_timestamp"
	// ResolutionManual writes an operator supplied merged row.
	ResolutionManual ResolutionStrategy = "manual"
)

// ParseResolutionStrategy accepts the canonical names plus a few
// operator-friendly aliases ("primary", "secondary", "latest").
func ParseResolutionStrategy(s string) (ResolutionStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ResolutionPrimaryWins), "primary", "primarywins":
		return ResolutionPrimaryWins, nil
	case string(ResolutionSecondaryWins), "secondary", "secondarywins":
		return ResolutionSecondaryWins, nil
	case string(ResolutionLatestTimestamp), "latest", "latesttimestamp":
		return ResolutionLatestTimestamp, nil
	case string(ResolutionManual):
		return ResolutionManual, nil
	}
	return "", fmt.Errorf("unknown resolution strategy %q", s)
}

// ConflictRecord is a divergence detected by the sync engine between the
// secondary store's pending change and the primary store's current row.
// Conflicts are never deleted; resolving one only flips Resolved.
type ConflictRecord struct {
	ID       int64     `json:"id"`
	Table    string    `json:"table"`
	RecordID string    `json:"record_id"`
	Op       Operation `json:"operation"`

	// SyncRecordID points at the queue entry that raised the conflict.
	SyncRecordID int64 `json:"sync_record_id"`

	SecondarySnapshot  Row       `json:"secondary_snapshot"`
	PrimarySnapshot    Row       `json:"primary_snapshot"`
	SecondaryTimestamp time.Time `json:"secondary_timestamp"`
	PrimaryTimestamp   time.Time `json:"primary_timestamp"`

	ResolutionStrategy ResolutionStrategy `json:"resolution_strategy"`
	Resolved           bool               `json:"resolved"`
	DetectedAt         time.Time          `json:"detected_at"`
	ResolvedAt         *time.Time         `json:"resolved_at,omitempty"`
}
