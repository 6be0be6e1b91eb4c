package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/internal/arbiter"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/hasher"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

const membersTable = "members"

// harness wires the whole data layer over in-memory stores.
type harness struct {
	primary   *memStore
	secondary *memStore
	records   *memSyncRecords
	conflicts *memConflicts
	syncLog   *memSyncLog

	hasher   *hasher.Hasher
	arbiter  *arbiter.Arbiter
	tracker  ChangeTracker
	rows     RecordService
	engine   *syncEngine
	resolver ConflictResolver
}

// newHarness builds the data layer. wrap, when given, decorates the
// secondary store seen by the arbiter and the engine.
func newHarness(t *testing.T, wrap ...func(store.Store) store.Store) *harness {
	t.Helper()

	h := &harness{
		primary:   newMemStore(store.PrimaryName),
		secondary: newMemStore(store.SecondaryName),
		records:   &memSyncRecords{},
		conflicts: &memConflicts{},
		syncLog:   &memSyncLog{},
		hasher:    hasher.New(""),
	}
	var secondary store.Store = h.secondary
	for _, w := range wrap {
		secondary = w(secondary)
	}

	log := logger.Nop()
	syncLog := NewSyncLogService(h.syncLog, log)

	h.arbiter = arbiter.New(h.primary, secondary, config.Arbiter{HealthCheckInterval: time.Hour, ProbeTimeout: time.Second}, log)
	h.tracker = NewChangeTracker(h.records, h.hasher, []string{membersTable}, log)
	h.rows = NewRecordService(h.arbiter, h.tracker, log)
	h.engine = NewSyncEngine(h.primary, secondary, h.records, h.conflicts, syncLog, h.hasher, nil, log).(*syncEngine)
	h.resolver = NewConflictResolver(h.primary, h.conflicts, syncLog, log)

	return h
}

func (h *harness) goOffline(t *testing.T) {
	t.Helper()
	h.primary.setDown(true)
	h.arbiter.ForceRecheck()
	conn, err := h.arbiter.GetConnection(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.ModeSecondary, conn.Mode)
}

func (h *harness) goOnline(t *testing.T) {
	t.Helper()
	h.primary.setDown(false)
	h.arbiter.ForceRecheck()
	conn, err := h.arbiter.GetConnection(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.ModePrimary, conn.Mode)
}

// seedBoth stores row in both stores, as if it had been synced earlier.
func (h *harness) seedBoth(table string, row models.Row) {
	h.primary.seed(table, row)
	h.secondary.seed(table, row)
}

func member(id string, balance int64) models.Row {
	return models.Row{"id": id, "name": "Member " + id, "balance": balance}
}
