package service

import (
	"context"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/hasher"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/internal/validators"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// changeTracker appends a Pending sync record for every fallback mutation
// of an enrolled table.
type changeTracker struct {
	records   store.SyncRecordRepository
	hasher    *hasher.Hasher
	validator validators.Validator

	// enrolled is fixed at construction; tables outside it are never synced.
	enrolled map[string]struct{}

	now    func() time.Time
	logger *logger.Logger
}

// NewChangeTracker returns a tracker that appends to records for the given
// enrolled tables only.
func NewChangeTracker(records store.SyncRecordRepository, h *hasher.Hasher, tables []string, log *logger.Logger) ChangeTracker {
	enrolled := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		enrolled[t] = struct{}{}
	}

	return &changeTracker{
		records:   records,
		hasher:    h,
		validator: validators.NewSyncValidator(),
		enrolled:  enrolled,
		now:       time.Now,
		logger:    log,
	}
}

// Enrolled reports whether mutations of table are queued for sync.
func (t *changeTracker) Enrolled(table string) bool {
	_, ok := t.enrolled[table]
	return ok
}

// Track queues an insert or delete. It never returns an error: failures are
// logged and the caller's write stands.
func (t *changeTracker) Track(ctx context.Context, mode models.ConnectionMode, table, recordID string, op models.Operation, row models.Row) {
	t.track(ctx, mode, table, recordID, op, nil, row)
}

// TrackUpdate queues an update. before is the stored row prior to the write
// and becomes the record's base hash.
func (t *changeTracker) TrackUpdate(ctx context.Context, mode models.ConnectionMode, table, recordID string, before, after models.Row) {
	t.track(ctx, mode, table, recordID, models.OperationUpdate, before, after)
}

func (t *changeTracker) track(ctx context.Context, mode models.ConnectionMode, table, recordID string, op models.Operation, before, after models.Row) {
	if mode != models.ModeSecondary || !t.Enrolled(table) {
		return
	}

	log := logger.FromContextOr(ctx, t.logger)
	fail := func(err error, msg string) {
		log.Err(err).
			Str("func", "changeTracker.Track").
			Str("table", table).
			Str("record_id", recordID).
			Str("operation", string(op)).
			Msg(msg)
	}

	if err := t.validator.Validate(ctx, models.SyncRecord{Op: op}, validators.FieldOperation); err != nil {
		fail(err, "change not tracked")
		return
	}

	rec := models.SyncRecord{
		Table:      table,
		RecordID:   recordID,
		Op:         op,
		CapturedAt: t.now().UTC(),
		Status:     models.SyncStatusPending,
	}

	if op != models.OperationDelete {
		contentHash, err := t.hasher.Hash(after)
		if err != nil {
			fail(err, "change not tracked: hashing row failed")
			return
		}
		rec.ContentHash = contentHash
	}
	if op == models.OperationUpdate && before != nil {
		baseHash, err := t.hasher.Hash(before)
		if err != nil {
			fail(err, "change not tracked: hashing previous row failed")
			return
		}
		rec.BaseHash = baseHash
	}

	if err := t.validator.Validate(ctx, rec); err != nil {
		fail(err, "change not tracked")
		return
	}

	// The caller's write already succeeded; its cancellation must not drop
	// the queue entry.
	id, err := t.records.Append(context.WithoutCancel(ctx), rec)
	if err != nil {
		fail(err, "change not tracked: appending sync record failed")
		return
	}

	log.Debug().
		Str("func", "changeTracker.Track").
		Str("table", table).
		Str("record_id", recordID).
		Str("operation", string(op)).
		Int64("sync_record_id", id).
		Msg("change tracked")
}
