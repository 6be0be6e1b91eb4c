// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter is the client side of the mmudzi operator API.
//
// [OperatorAPI] hides the transport from mmudzictl. Non-2xx responses are
// mapped by mapHTTPError to the sentinel errors in errors.go so callers can
// branch with [errors.Is].
package adapter

import (
	"context"

	"github.com/MKhiriev/bank-mmudzi/models"
)

// OperatorAPI is the set of calls an operator can make against a running
// mmudzi-server.
type OperatorAPI interface {
	// Status returns the connection mode and sync queue counters.
	Status(ctx context.Context) (models.SyncStatusReport, error)

	// Trigger schedules a sync session. It reports false when one was
	// already queued or running.
	Trigger(ctx context.Context) (bool, error)

	// Recheck forces a primary health probe and returns the resulting mode.
	Recheck(ctx context.Context) (models.RecheckResponse, error)

	// ListConflicts returns every unresolved conflict.
	ListConflicts(ctx context.Context) ([]models.ConflictRecord, error)

	// GetConflict returns one conflict by id.
	GetConflict(ctx context.Context, id int64) (models.ConflictRecord, error)

	// Resolve applies strategy to the conflict. merged is only sent for
	// the manual strategy.
	Resolve(ctx context.Context, id int64, strategy string, merged models.Row) (bool, error)

	// Tail returns up to limit sync log entries, newest first, optionally
	// restricted to one session. A non-positive limit uses the server default.
	Tail(ctx context.Context, session string, limit int) ([]models.LogEntry, error)

	// Version returns the server build information.
	Version(ctx context.Context) (models.VersionResponse, error)
}
