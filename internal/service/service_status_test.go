package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/models"
)

func TestStatusService_GetSyncStatus(t *testing.T) {
	h := newHarness(t)
	svc := NewStatusService(h.arbiter, h.records, h.conflicts, h.engine)
	ctx := context.Background()

	report, err := svc.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModePrimary, report.Mode)
	assert.Nil(t, report.LastHealthCheck)
	assert.Nil(t, report.LastSyncTime)

	h.seedBoth(membersTable, member("m-1", 50))
	h.goOffline(t)
	require.NoError(t, h.rows.Put(ctx, membersTable, member("m-1", 100)))
	require.NoError(t, h.rows.Put(ctx, membersTable, member("m-2", 1)))

	report, err = svc.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, report.Mode)
	assert.True(t, report.FallbackActive)
	assert.Equal(t, 1, report.ConsecutiveFailures)
	assert.NotNil(t, report.LastHealthCheck)
	assert.Equal(t, int64(2), report.PendingCount)
	assert.Zero(t, report.ConflictCount)
	assert.False(t, report.SyncRunning)

	h.primary.seed(membersTable, member("m-1", 150))
	h.goOnline(t)
	runSync(t, h)

	report, err = svc.GetSyncStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ModePrimary, report.Mode)
	assert.False(t, report.FallbackActive)
	assert.Zero(t, report.PendingCount)
	assert.Equal(t, int64(1), report.ConflictCount)
	assert.NotNil(t, report.LastSyncTime)
}
