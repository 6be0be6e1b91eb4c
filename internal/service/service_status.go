package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type statusService struct {
	connections ConnectionProvider
	records     store.SyncRecordRepository
	conflicts   store.ConflictRepository
	engine      SyncEngine
}

// NewStatusService returns the service behind GET /api/sync/status.
func NewStatusService(connections ConnectionProvider, records store.SyncRecordRepository, conflicts store.ConflictRepository, engine SyncEngine) StatusService {
	return &statusService{
		connections: connections,
		records:     records,
		conflicts:   conflicts,
		engine:      engine,
	}
}

// GetSyncStatus reports the arbiter state without probing, together with
// the queue sizes read from the secondary store.
func (s *statusService) GetSyncStatus(ctx context.Context) (models.SyncStatusReport, error) {
	st := s.connections.Status()

	report := models.SyncStatusReport{
		Mode:                st.Mode,
		FallbackActive:      st.FallbackActive,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastSyncTime:        s.engine.LastSyncTime(),
		SyncRunning:         s.engine.Running(),
	}
	if !st.LastHealthCheck.IsZero() {
		checked := st.LastHealthCheck
		report.LastHealthCheck = &checked
	}

	pending, err := s.records.CountByStatus(ctx, models.SyncStatusPending)
	if err != nil {
		return report, fmt.Errorf("counting pending records: %w", err)
	}
	report.PendingCount = pending

	conflicts, err := s.conflicts.CountUnresolved(ctx)
	if err != nil {
		return report, fmt.Errorf("counting unresolved conflicts: %w", err)
	}
	report.ConflictCount = conflicts

	return report, nil
}
