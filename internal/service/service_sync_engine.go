// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/hasher"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/metrics"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// updatedAtColumn is read from primary rows to date conflicts.
const updatedAtColumn = "updated_at"

// syncEngine drains the pending-change queue into the primary store.
//
// Only one session runs at a time: the running flag is acquired without
// blocking and a second caller gets an AlreadyActive result instead.
type syncEngine struct {
	// primary receives replayed changes; secondary is read for the current
	// local row of every record.
	primary   store.Store
	secondary store.Store

	// records is the pending-change queue, conflicts the conflict store.
	// Both live on the secondary.
	records   store.SyncRecordRepository
	conflicts store.ConflictRepository

	syncLog SyncLogService
	hasher  *hasher.Hasher
	// metrics may be nil.
	metrics *metrics.Metrics

	// running is the session lock.
	running atomic.Bool
	// requests holds at most one pending trigger.
	requests chan struct{}
	// lastSync is nil until a session finishes without failing.
	lastSync atomic.Pointer[time.Time]

	now    func() time.Time
	ids    *utils.UUIDGenerator
	logger *logger.Logger
}

// NewSyncEngine wires a sync engine. m may be nil.
func NewSyncEngine(
	primary, secondary store.Store,
	records store.SyncRecordRepository,
	conflicts store.ConflictRepository,
	syncLog SyncLogService,
	h *hasher.Hasher,
	m *metrics.Metrics,
	log *logger.Logger,
) SyncEngine {
	return &syncEngine{
		primary:   primary,
		secondary: secondary,
		records:   records,
		conflicts: conflicts,
		syncLog:   syncLog,
		hasher:    h,
		metrics:   m,
		requests:  make(chan struct{}, 1),
		now:       time.Now,
		ids:       utils.NewUUIDGenerator(),
		logger:    log,
	}
}

// Trigger asks the sync job for a session. It reports false when a request
// is already waiting.
func (e *syncEngine) Trigger() bool {
	select {
	case e.requests <- struct{}{}:
		return true
	default:
		return false
	}
}

// Requests is drained by the sync job.
func (e *syncEngine) Requests() <-chan struct{} {
	return e.requests
}

// LastSyncTime is the finish time of the last session that did not fail,
// or nil.
func (e *syncEngine) LastSyncTime() *time.Time {
	return e.lastSync.Load()
}

// Running reports whether a session is in progress.
func (e *syncEngine) Running() bool {
	return e.running.Load()
}

// RunSync processes every Pending record in (captured_at, id) order.
//
// Per-record failures leave the record Pending and the session goes on.
// A connectivity failure or cancellation ends the session as Failed;
// records already marked stay marked.
func (e *syncEngine) RunSync(ctx context.Context) models.SyncSessionResult {
	if !e.running.CompareAndSwap(false, true) {
		return models.SyncSessionResult{AlreadyActive: true}
	}
	defer e.running.Store(false)

	res := models.SyncSessionResult{
		SessionID: e.ids.Generate(),
		StartedAt: e.now().UTC(),
	}
	log := e.logger.WithField("session_id", res.SessionID)
	ctx = log.WithContext(ctx)
	logCtx := context.WithoutCancel(ctx)

	log.Info().Str("func", "syncEngine.RunSync").Msg("sync session started")
	e.syncLog.Append(logCtx, res.SessionID, "sync session started", models.LogLevelInfo)

	failure := ""
	pending, err := e.records.ListPending(ctx)
	if err != nil {
		failure = fmt.Sprintf("listing pending records failed: %v", err)
	}

	for _, rec := range pending {
		if failure != "" {
			break
		}
		if ctx.Err() != nil {
			failure = "session cancelled"
			break
		}

		status, recErr := e.syncRecord(ctx, rec)
		if recErr == nil {
			switch status {
			case models.SyncStatusSynced:
				res.RecordsSynced++
			case models.SyncStatusConflicted:
				res.ConflictsFound++
			}
			continue
		}

		res.RecordsFailed++
		msg := fmt.Sprintf("sync record %d (%s %s/%s) failed: %v", rec.ID, rec.Op, rec.Table, rec.RecordID, recErr)
		log.Warn().Err(recErr).
			Str("func", "syncEngine.RunSync").
			Int64("sync_record_id", rec.ID).
			Str("table", rec.Table).
			Str("record_id", rec.RecordID).
			Msg("sync record failed, left pending")
		e.syncLog.Append(logCtx, res.SessionID, msg, models.LogLevelWarn)

		if markErr := e.records.MarkError(logCtx, rec.ID, recErr.Error()); markErr != nil {
			log.Err(markErr).Int64("sync_record_id", rec.ID).Msg("failed to record sync attempt")
		}

		if errors.Is(recErr, store.ErrConnectivity) {
			failure = "store became unreachable: " + recErr.Error()
		}
	}

	return e.finish(logCtx, log, res, failure)
}

func (e *syncEngine) finish(ctx context.Context, log *logger.Logger, res models.SyncSessionResult, failure string) models.SyncSessionResult {
	res.FinishedAt = e.now().UTC()

	level := models.LogLevelInfo
	switch {
	case failure != "":
		res.Outcome = models.SyncOutcomeFailed
		level = models.LogLevelError
	case res.ConflictsFound > 0:
		res.Outcome = models.SyncOutcomeCompletedWithConflicts
		level = models.LogLevelWarn
	default:
		res.Outcome = models.SyncOutcomeCompleted
	}

	if res.Outcome != models.SyncOutcomeFailed {
		finished := res.FinishedAt
		e.lastSync.Store(&finished)
	}

	summary := fmt.Sprintf("sync session finished: outcome=%s synced=%d conflicts=%d failed=%d",
		res.Outcome, res.RecordsSynced, res.ConflictsFound, res.RecordsFailed)
	if failure != "" {
		summary += ": " + failure
	}
	e.syncLog.Append(ctx, res.SessionID, summary, level)
	e.metrics.ObserveSession(res)

	log.WithLevel(zerologLevel(level)).
		Str("func", "syncEngine.finish").
		Str("outcome", string(res.Outcome)).
		Int("records_synced", res.RecordsSynced).
		Int("conflicts_found", res.ConflictsFound).
		Int("records_failed", res.RecordsFailed).
		Dur("duration", res.FinishedAt.Sub(res.StartedAt)).
		Msg("sync session finished")

	return res
}

// syncRecord replays one record and returns the status it was moved to.
// On error the record has not been moved.
func (e *syncEngine) syncRecord(ctx context.Context, rec models.SyncRecord) (models.SyncStatus, error) {
	if open, found, err := e.conflicts.FindUnresolved(ctx, rec.Table, rec.RecordID); err != nil {
		return "", err
	} else if found {
		return e.fold(ctx, rec, open)
	}

	secondaryRow, secondaryFound, err := e.secondary.Get(ctx, rec.Table, rec.RecordID)
	if err != nil {
		return "", fmt.Errorf("reading secondary row: %w", err)
	}
	primaryRow, primaryFound, err := e.primary.Get(ctx, rec.Table, rec.RecordID)
	if err != nil {
		return "", fmt.Errorf("reading primary row: %w", err)
	}

	switch rec.Op {
	case models.OperationInsert:
		if !secondaryFound {
			// Superseded by a later delete still in the queue.
			return e.mark(ctx, rec, models.SyncStatusSynced)
		}
		if primaryFound {
			same, err := e.hasher.Equal(primaryRow, secondaryRow)
			if err != nil {
				return "", err
			}
			if same {
				return e.mark(ctx, rec, models.SyncStatusSynced)
			}
			return e.conflict(ctx, rec, secondaryRow, primaryRow)
		}
		return e.apply(ctx, rec, secondaryRow)

	case models.OperationUpdate:
		if !secondaryFound {
			return e.mark(ctx, rec, models.SyncStatusSynced)
		}
		if !primaryFound {
			return e.apply(ctx, rec, secondaryRow)
		}

		primaryHash, err := e.hasher.Hash(primaryRow)
		if err != nil {
			return "", err
		}
		switch {
		case primaryHash == rec.ContentHash:
			return e.mark(ctx, rec, models.SyncStatusSynced)
		case rec.BaseHash != "" && primaryHash == rec.BaseHash:
			return e.apply(ctx, rec, secondaryRow)
		}
		return e.conflict(ctx, rec, secondaryRow, primaryRow)

	case models.OperationDelete:
		if primaryFound {
			if _, err := e.primary.Delete(ctx, rec.Table, rec.RecordID); err != nil {
				return "", fmt.Errorf("deleting primary row: %w", err)
			}
		}
		return e.mark(ctx, rec, models.SyncStatusSynced)
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownOperation, rec.Op)
}

func (e *syncEngine) apply(ctx context.Context, rec models.SyncRecord, row models.Row) (models.SyncStatus, error) {
	if err := e.primary.Put(ctx, rec.Table, row); err != nil {
		return "", fmt.Errorf("writing primary row: %w", err)
	}
	return e.mark(ctx, rec, models.SyncStatusSynced)
}

func (e *syncEngine) conflict(ctx context.Context, rec models.SyncRecord, secondaryRow, primaryRow models.Row) (models.SyncStatus, error) {
	detected := e.now().UTC()
	c := models.ConflictRecord{
		Table:              rec.Table,
		RecordID:           rec.RecordID,
		Op:                 rec.Op,
		SyncRecordID:       rec.ID,
		SecondarySnapshot:  secondaryRow,
		PrimarySnapshot:    primaryRow,
		SecondaryTimestamp: rec.CapturedAt,
		PrimaryTimestamp:   rowTimestamp(primaryRow, detected),
		ResolutionStrategy: models.ResolutionManual,
		DetectedAt:         detected,
	}

	id, err := e.conflicts.Create(ctx, c)
	if err != nil {
		return "", fmt.Errorf("storing conflict: %w", err)
	}

	logger.FromContextOr(ctx, e.logger).Warn().
		Str("func", "syncEngine.conflict").
		Int64("conflict_id", id).
		Int64("sync_record_id", rec.ID).
		Str("table", rec.Table).
		Str("record_id", rec.RecordID).
		Msg("conflict detected")

	return e.mark(ctx, rec, models.SyncStatusConflicted)
}

// fold attaches a later local change to the conflict already open for its
// record. The conflict's secondary side is replaced with the current
// secondary row, so a SecondaryWins resolution applies the newest local
// state; a missing row turns the conflict into a delete.
func (e *syncEngine) fold(ctx context.Context, rec models.SyncRecord, open models.ConflictRecord) (models.SyncStatus, error) {
	row, found, err := e.secondary.Get(ctx, rec.Table, rec.RecordID)
	if err != nil {
		return "", fmt.Errorf("reading secondary row: %w", err)
	}

	op := rec.Op
	switch {
	case !found:
		op, row = models.OperationDelete, nil
	case op == models.OperationDelete:
		// re-created after the queued delete
		op = models.OperationUpdate
	}

	if err = e.conflicts.RefreshSecondary(ctx, open.ID, op, row, rec.CapturedAt); err != nil {
		return "", fmt.Errorf("refreshing conflict %d: %w", open.ID, err)
	}

	logger.FromContextOr(ctx, e.logger).Debug().
		Str("func", "syncEngine.fold").
		Int64("conflict_id", open.ID).
		Int64("sync_record_id", rec.ID).
		Str("operation", string(op)).
		Msg("change folded into open conflict")

	return e.mark(ctx, rec, models.SyncStatusConflicted)
}

func (e *syncEngine) mark(ctx context.Context, rec models.SyncRecord, status models.SyncStatus) (models.SyncStatus, error) {
	if err := e.records.MarkStatus(ctx, rec.ID, status); err != nil {
		return "", fmt.Errorf("marking sync record %s: %w", status, err)
	}
	return status, nil
}

// rowTimestamp returns the row's updated_at value when it holds a
// parseable time, and fallback otherwise.
func rowTimestamp(row models.Row, fallback time.Time) time.Time {
	switch v := row[updatedAtColumn].(type) {
	case time.Time:
		return v.UTC()
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return fallback
}
