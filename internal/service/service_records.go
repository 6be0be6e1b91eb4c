package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/bank-mmudzi/internal/arbiter"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// recordService routes CRUD calls through the arbiter and reports writes
// made on the secondary store to the change tracker.
type recordService struct {
	// connections picks the store for every call.
	connections ConnectionProvider
	// tracker queues writes made while the secondary is serving.
	tracker ChangeTracker
	logger  *logger.Logger
}

// NewRecordService returns the CRUD facade used by application code.
func NewRecordService(connections ConnectionProvider, tracker ChangeTracker, log *logger.Logger) RecordService {
	return &recordService{connections: connections, tracker: tracker, logger: log}
}

// Get reads from whichever store the arbiter selects.
func (s *recordService) Get(ctx context.Context, table, id string) (models.Row, bool, error) {
	conn, err := s.connections.GetConnection(ctx)
	if err != nil {
		return nil, false, err
	}

	row, found, err := conn.Store.Get(ctx, table, id)
	return row, found, s.checkConnectivity(conn, err)
}

// Query returns rows matching filter from the selected store.
func (s *recordService) Query(ctx context.Context, table string, filter models.Row) ([]models.Row, error) {
	conn, err := s.connections.GetConnection(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Store.Query(ctx, table, filter)
	return rows, s.checkConnectivity(conn, err)
}

// Put inserts or replaces row. On the secondary store the previous row is
// read first so that the tracked update carries its base hash, and the
// written row is read back for the content hash.
func (s *recordService) Put(ctx context.Context, table string, row models.Row) error {
	if row.ID() == "" {
		return store.ErrMissingID
	}

	conn, err := s.connections.GetConnection(ctx)
	if err != nil {
		return err
	}

	var (
		before  models.Row
		existed bool
	)
	tracked := conn.Mode == models.ModeSecondary && s.tracker.Enrolled(table)
	if tracked {
		before, existed, err = conn.Store.Get(ctx, table, row.ID())
		if err != nil {
			return s.checkConnectivity(conn, err)
		}
	}

	if err = conn.Store.Put(ctx, table, row); err != nil {
		return s.checkConnectivity(conn, err)
	}

	if !tracked {
		return nil
	}

	// Hashes must describe the row as stored: defaults and columns the
	// caller left out are part of what the primary will be compared with.
	stored, found, err := conn.Store.Get(ctx, table, row.ID())
	if err != nil || !found {
		s.logger.Warn().Err(err).
			Str("func", "recordService.Put").
			Str("table", table).
			Str("record_id", row.ID()).
			Msg("reading back written row failed, tracking the caller's row")
		stored = row
	}

	if existed {
		s.tracker.TrackUpdate(ctx, conn.Mode, table, row.ID(), before, stored)
	} else {
		s.tracker.Track(ctx, conn.Mode, table, row.ID(), models.OperationInsert, stored)
	}
	return nil
}

// Delete removes the row from the selected store and reports whether it
// existed there.
func (s *recordService) Delete(ctx context.Context, table, id string) (bool, error) {
	conn, err := s.connections.GetConnection(ctx)
	if err != nil {
		return false, err
	}

	deleted, err := conn.Store.Delete(ctx, table, id)
	if err != nil {
		return false, s.checkConnectivity(conn, err)
	}

	// The row may exist only on the primary, so the delete is queued even
	// when nothing was removed locally.
	s.tracker.Track(ctx, conn.Mode, table, id, models.OperationDelete, nil)
	return deleted, nil
}

// checkConnectivity schedules an immediate probe when the primary failed
// mid-call. The call itself still fails.
func (s *recordService) checkConnectivity(conn arbiter.Connection, err error) error {
	if err != nil && conn.Mode == models.ModePrimary && errors.Is(err, store.ErrConnectivity) {
		s.logger.Warn().Err(err).
			Str("func", "recordService.checkConnectivity").
			Msg("primary store failed mid-call, forcing health check")
		s.connections.ForceRecheck()
	}
	return err
}
