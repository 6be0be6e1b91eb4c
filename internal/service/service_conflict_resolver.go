package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// conflictResolver settles conflicts by writing the chosen row into the
// primary store and then flagging the conflict resolved. If the write
// fails the conflict stays unresolved.
type conflictResolver struct {
	// primary is written directly, not through the arbiter.
	primary   store.Store
	conflicts store.ConflictRepository
	syncLog   SyncLogService
	now       func() time.Time
	logger    *logger.Logger
}

// NewConflictResolver returns a resolver that writes winners into primary.
// Resolutions are recorded in syncLog under an empty session id.
func NewConflictResolver(primary store.Store, conflicts store.ConflictRepository, syncLog SyncLogService, log *logger.Logger) ConflictResolver {
	return &conflictResolver{
		primary:   primary,
		conflicts: conflicts,
		syncLog:   syncLog,
		now:       time.Now,
		logger:    log,
	}
}

// ListUnresolved returns open conflicts, oldest first.
func (r *conflictResolver) ListUnresolved(ctx context.Context) ([]models.ConflictRecord, error) {
	return r.conflicts.ListUnresolved(ctx)
}

// Get returns one conflict. Non-positive ids fail with ErrInvalidConflictID.
func (r *conflictResolver) Get(ctx context.Context, id int64) (models.ConflictRecord, error) {
	if id <= 0 {
		return models.ConflictRecord{}, ErrInvalidConflictID
	}
	return r.conflicts.Get(ctx, id)
}

// Resolve settles conflict id with strategy and reports whether it is now
// resolved. Manual leaves the conflict open and returns false; resolving an
// already resolved conflict is a no-op that returns true.
func (r *conflictResolver) Resolve(ctx context.Context, id int64, strategy models.ResolutionStrategy) (bool, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if c.Resolved {
		return true, nil
	}

	switch effectiveStrategy(c, strategy) {
	case models.ResolutionPrimaryWins:
	case models.ResolutionSecondaryWins:
		if err = r.applySecondary(ctx, c); err != nil {
			return false, err
		}
	case models.ResolutionManual:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	return r.markResolved(ctx, c, strategy)
}

// applySecondary makes the primary match the conflict's secondary side.
// An empty snapshot is only valid for a local delete.
func (r *conflictResolver) applySecondary(ctx context.Context, c models.ConflictRecord) error {
	if len(c.SecondarySnapshot) > 0 {
		if err := r.primary.Put(ctx, c.Table, c.SecondarySnapshot); err != nil {
			return fmt.Errorf("writing secondary snapshot to primary: %w", err)
		}
		return nil
	}
	if c.Op != models.OperationDelete {
		return fmt.Errorf("%w: conflict %d", ErrEmptySnapshot, c.ID)
	}
	if _, err := r.primary.Delete(ctx, c.Table, c.RecordID); err != nil {
		return fmt.Errorf("deleting primary row: %w", err)
	}
	return nil
}

// ResolveManual writes merged into the primary and closes the conflict.
// A merged row without an id takes the conflict's record id; an empty row
// leaves the conflict open.
func (r *conflictResolver) ResolveManual(ctx context.Context, id int64, merged models.Row) (bool, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if c.Resolved {
		return true, nil
	}
	if len(merged) == 0 {
		return false, nil
	}

	row := merged.Clone()
	switch mergedID := row.ID(); mergedID {
	case "":
		row[models.IDColumn] = c.RecordID
	case c.RecordID:
	default:
		return false, fmt.Errorf("%w: %q != %q", ErrMergedIDMismatch, mergedID, c.RecordID)
	}

	if err = r.primary.Put(ctx, c.Table, row); err != nil {
		return false, fmt.Errorf("writing merged row to primary: %w", err)
	}

	return r.markResolved(ctx, c, models.ResolutionManual)
}

func (r *conflictResolver) markResolved(ctx context.Context, c models.ConflictRecord, strategy models.ResolutionStrategy) (bool, error) {
	flipped, err := r.conflicts.MarkResolved(ctx, c.ID, strategy, r.now().UTC())
	if err != nil {
		return false, err
	}
	if !flipped {
		// Someone else resolved it between Get and here.
		return true, nil
	}

	msg := fmt.Sprintf("conflict %d on %s/%s resolved with %s", c.ID, c.Table, c.RecordID, strategy)
	r.syncLog.Append(ctx, "", msg, models.LogLevelInfo)
	logger.FromContextOr(ctx, r.logger).Info().
		Str("func", "conflictResolver.markResolved").
		Int64("conflict_id", c.ID).
		Str("table", c.Table).
		Str("record_id", c.RecordID).
		Str("strategy", string(strategy)).
		Msg("conflict resolved")

	return true, nil
}

// effectiveStrategy turns LatestTimestamp into the side with the newer
// timestamp. Ties go to the secondary.
func effectiveStrategy(c models.ConflictRecord, strategy models.ResolutionStrategy) models.ResolutionStrategy {
	if strategy != models.ResolutionLatestTimestamp {
		return strategy
	}
	if c.PrimaryTimestamp.After(c.SecondaryTimestamp) {
		return models.ResolutionPrimaryWins
	}
	return models.ResolutionSecondaryWins
}
