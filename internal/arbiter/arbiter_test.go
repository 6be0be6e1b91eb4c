package arbiter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/mock"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testCfg = config.Arbiter{HealthCheckInterval: 30 * time.Second, ProbeTimeout: time.Second}

func newTestArbiter(t *testing.T, opts ...Option) (*Arbiter, *mock.MockStore, *mock.MockStore, *fakeClock) {
	t.Helper()
	ctrl := gomock.NewController(t)
	primary := mock.NewMockStore(ctrl)
	secondary := mock.NewMockStore(ctrl)
	clock := &fakeClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return New(primary, secondary, testCfg, logger.Nop(), opts...), primary, secondary, clock
}

func TestNewState_StartsOptimistic(t *testing.T) {
	s := NewState().Snapshot()

	assert.Equal(t, models.ModePrimary, s.Mode)
	assert.False(t, s.FallbackActive)
	assert.Zero(t, s.ConsecutiveFailures)
	assert.True(t, s.LastHealthCheck.IsZero())
}

func TestArbiter_GetConnection_PrimaryHealthy(t *testing.T) {
	a, primary, _, clock := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).Return(nil).Times(1)

	conn, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModePrimary, conn.Mode)
	assert.Same(t, primary, conn.Store)

	st := a.Status()
	assert.Equal(t, clock.Now(), st.LastHealthCheck)
	assert.False(t, st.FallbackActive)
}

func TestArbiter_GetConnection_RateLimitsProbes(t *testing.T) {
	a, primary, _, clock := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).Return(nil).Times(2)

	for i := 0; i < 5; i++ {
		_, err := a.GetConnection(context.Background())
		require.NoError(t, err)
		clock.Advance(5 * time.Second)
	}

	// 25s elapsed since the first probe; the next one is due after 30s.
	clock.Advance(10 * time.Second)
	_, err := a.GetConnection(context.Background())
	require.NoError(t, err)
}

func TestArbiter_GetConnection_FallsBackToSecondary(t *testing.T) {
	a, primary, secondary, _ := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).Return(store.ErrConnectivity)
	secondary.EXPECT().Ping(gomock.Any()).Return(nil)

	conn, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, conn.Mode)
	assert.Same(t, secondary, conn.Store)

	st := a.Status()
	assert.True(t, st.FallbackActive)
	assert.Equal(t, 1, st.ConsecutiveFailures)

	// No probe due: last known mode is served without pinging anything.
	conn, err = a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, conn.Mode)
}

func TestArbiter_GetConnection_CountsConsecutiveFailures(t *testing.T) {
	a, primary, secondary, clock := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).Return(errors.New("refused")).Times(3)
	secondary.EXPECT().Ping(gomock.Any()).Return(nil).Times(3)

	for i := 0; i < 3; i++ {
		_, err := a.GetConnection(context.Background())
		require.NoError(t, err)
		clock.Advance(31 * time.Second)
	}

	assert.Equal(t, 3, a.Status().ConsecutiveFailures)
}

func TestArbiter_GetConnection_BothUnreachable(t *testing.T) {
	a, primary, secondary, _ := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).Return(errors.New("refused"))
	secondary.EXPECT().Ping(gomock.Any()).Return(errors.New("disk I/O error"))

	_, err := a.GetConnection(context.Background())
	assert.ErrorIs(t, err, store.ErrConnectivity)
}

func TestArbiter_Recovery_TriggersHookOnce(t *testing.T) {
	recovered := make(chan struct{}, 2)
	a, primary, secondary, clock := newTestArbiter(t, WithRecoverHook(func() { recovered <- struct{}{} }))

	gomock.InOrder(
		primary.EXPECT().Ping(gomock.Any()).Return(errors.New("refused")),
		primary.EXPECT().Ping(gomock.Any()).Return(nil),
		primary.EXPECT().Ping(gomock.Any()).Return(nil),
	)
	secondary.EXPECT().Ping(gomock.Any()).Return(nil)

	_, err := a.GetConnection(context.Background())
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	conn, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModePrimary, conn.Mode)
	assert.Zero(t, a.Status().ConsecutiveFailures)
	assert.False(t, a.Status().FallbackActive)

	select {
	case <-recovered:
	case <-time.After(time.Second):
		t.Fatal("recover hook was not called")
	}

	// Primary to primary is not an edge.
	clock.Advance(31 * time.Second)
	_, err = a.GetConnection(context.Background())
	require.NoError(t, err)

	select {
	case <-recovered:
		t.Fatal("recover hook called without a transition")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestArbiter_ForceRecheck(t *testing.T) {
	a, primary, secondary, _ := newTestArbiter(t)
	gomock.InOrder(
		primary.EXPECT().Ping(gomock.Any()).Return(errors.New("refused")),
		primary.EXPECT().Ping(gomock.Any()).Return(nil),
	)
	secondary.EXPECT().Ping(gomock.Any()).Return(nil)

	_, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, a.Mode())

	a.ForceRecheck()
	conn, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModePrimary, conn.Mode)
}

func TestArbiter_ProbeUsesTimeout(t *testing.T) {
	a, primary, secondary, _ := newTestArbiter(t)
	primary.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(testCfg.ProbeTimeout), deadline, 100*time.Millisecond)
		return context.DeadlineExceeded
	})
	secondary.EXPECT().Ping(gomock.Any()).Return(nil)

	conn, err := a.GetConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, conn.Mode)
}

func TestArbiter_SharedState(t *testing.T) {
	state := NewState()
	a, primary, secondary, _ := newTestArbiter(t, WithState(state))
	primary.EXPECT().Ping(gomock.Any()).Return(errors.New("refused"))
	secondary.EXPECT().Ping(gomock.Any()).Return(nil)

	_, err := a.GetConnection(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.ModeSecondary, state.Mode())
	assert.True(t, state.Snapshot().FallbackActive)
}
