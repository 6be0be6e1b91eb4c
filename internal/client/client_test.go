package client

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/internal/adapter"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

var (
	t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(5 * time.Minute)
	t2 = t0.Add(10 * time.Minute)
)

type fakeAPI struct {
	status    models.SyncStatusReport
	scheduled bool
	recheck   models.RecheckResponse
	conflicts []models.ConflictRecord
	entries   []models.LogEntry
	version   models.VersionResponse
	err       error

	resolvedID       int64
	resolvedStrategy string
	resolvedMerged   models.Row
	tailSession      string
	tailLimit        int
}

func (f *fakeAPI) Status(context.Context) (models.SyncStatusReport, error) { return f.status, f.err }
func (f *fakeAPI) Trigger(context.Context) (bool, error)                   { return f.scheduled, f.err }
func (f *fakeAPI) Recheck(context.Context) (models.RecheckResponse, error) { return f.recheck, f.err }
func (f *fakeAPI) ListConflicts(context.Context) ([]models.ConflictRecord, error) {
	return f.conflicts, f.err
}
func (f *fakeAPI) Version(context.Context) (models.VersionResponse, error) { return f.version, f.err }

func (f *fakeAPI) GetConflict(_ context.Context, id int64) (models.ConflictRecord, error) {
	for _, c := range f.conflicts {
		if c.ID == id {
			return c, nil
		}
	}
	return models.ConflictRecord{}, adapter.ErrNotFound
}

func (f *fakeAPI) Resolve(_ context.Context, id int64, strategy string, merged models.Row) (bool, error) {
	f.resolvedID, f.resolvedStrategy, f.resolvedMerged = id, strategy, merged
	return f.err == nil, f.err
}

func (f *fakeAPI) Tail(_ context.Context, session string, limit int) ([]models.LogEntry, error) {
	f.tailSession, f.tailLimit = session, limit
	return f.entries, f.err
}

func testConfig() config.ClientConfig {
	return config.ClientConfig{
		Address:        "http://localhost:8080",
		RequestTimeout: time.Second,
		TokenSignKey:   "sign-key",
		TokenIssuer:    "mmudzi",
	}
}

func run(t *testing.T, api *fakeAPI, cfg config.ClientConfig, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	factory := func(config.ClientConfig, *logger.Logger) (adapter.OperatorAPI, error) { return api, nil }
	app := NewApp(cfg, models.NewAppBuildInfo("1.2.0", "2026-05-01", "abc123"), logger.Nop(),
		WithAPIFactory(factory), WithOutput(&out))

	err := app.Run(args)
	return out.String(), err
}

func balanceConflict() models.ConflictRecord {
	return models.ConflictRecord{
		ID:                 3,
		Table:              "members",
		RecordID:           "m-1",
		Op:                 models.OperationUpdate,
		SyncRecordID:       11,
		SecondarySnapshot:  models.Row{"id": "m-1", "balance": int64(100)},
		PrimarySnapshot:    models.Row{"id": "m-1", "balance": int64(150)},
		SecondaryTimestamp: t0,
		PrimaryTimestamp:   t1,
		ResolutionStrategy: models.ResolutionManual,
		DetectedAt:         t2,
	}
}

func TestJSONOutput_Golden(t *testing.T) {
	api := &fakeAPI{
		status: models.SyncStatusReport{
			Mode:                models.ModeSecondary,
			FallbackActive:      true,
			ConsecutiveFailures: 3,
			LastHealthCheck:     &t0,
			PendingCount:        12,
			ConflictCount:       1,
		},
		conflicts: []models.ConflictRecord{balanceConflict()},
		entries: []models.LogEntry{{
			ID:        8,
			SessionID: "s-1",
			Level:     models.LogLevelWarn,
			Message:   "sync session finished: outcome=completed_with_conflicts synced=4 conflicts=1 failed=0",
			CreatedAt: t2,
		}},
	}

	tests := []struct {
		golden string
		args   []string
	}{
		{golden: "status", args: []string{"status", "--format", "json"}},
		{golden: "conflicts_list", args: []string{"conflicts", "list", "--format", "json"}},
		{golden: "sync_log", args: []string{"log", "--format", "json"}},
	}

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			out, err := run(t, api, testConfig(), tt.args...)
			require.NoError(t, err)
			g.Assert(t, tt.golden, []byte(out))
		})
	}
}

func TestStatus_Text(t *testing.T) {
	api := &fakeAPI{status: models.SyncStatusReport{Mode: models.ModePrimary, PendingCount: 4}}

	out, err := run(t, api, testConfig(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "primary")
	assert.Contains(t, out, "pending records:      4")
	assert.Contains(t, out, "last sync:            never")
}

func TestSync_Text(t *testing.T) {
	tests := []struct {
		name      string
		scheduled bool
		want      string
	}{
		{name: "scheduled", scheduled: true, want: "sync scheduled"},
		{name: "already queued", want: "already queued or running"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, &fakeAPI{scheduled: tt.scheduled}, testConfig(), "sync")
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestRecheck_Text(t *testing.T) {
	out, err := run(t, &fakeAPI{recheck: models.RecheckResponse{Mode: models.ModeSecondary, FallbackActive: true}}, testConfig(), "recheck")
	require.NoError(t, err)
	assert.Contains(t, out, "primary store is unreachable")
}

func TestConflictsList_Text(t *testing.T) {
	out, err := run(t, &fakeAPI{conflicts: []models.ConflictRecord{balanceConflict()}}, testConfig(), "conflicts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "members")
	assert.Contains(t, out, "2026-05-01T12:10:00Z")

	out, err = run(t, &fakeAPI{}, testConfig(), "conflicts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no unresolved conflicts")
}

func TestConflictsShow_MarksDifferingColumns(t *testing.T) {
	out, err := run(t, &fakeAPI{conflicts: []models.ConflictRecord{balanceConflict()}}, testConfig(), "conflicts", "show", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "members/m-1")
	assert.Regexp(t, `balance\s+100\s+150\s+\*`, out)
	assert.Regexp(t, `id\s+m-1\s+m-1\s*\n`, out)
}

func TestConflictsShow_Errors(t *testing.T) {
	_, err := run(t, &fakeAPI{}, testConfig(), "conflicts", "show", "abc")
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = run(t, &fakeAPI{}, testConfig(), "conflicts", "show", "7")
	assert.ErrorIs(t, err, adapter.ErrNotFound)
}

func TestConflictsResolve(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantStrategy string
		wantMerged   models.Row
		wantErr      error
	}{
		{
			name:         "alias is normalized",
			args:         []string{"conflicts", "resolve", "3", "--strategy", "secondary"},
			wantStrategy: "secondary_wins",
		},
		{
			name:         "manual with merged row",
			args:         []string{"conflicts", "resolve", "3", "-s", "manual", "--merged", `{"balance": 125}`},
			wantStrategy: "manual",
			wantMerged:   models.Row{"balance": int64(125)},
		},
		{
			name:    "merged row is not an object",
			args:    []string{"conflicts", "resolve", "3", "-s", "manual", "--merged", `[1,2]`},
			wantErr: ErrInvalidMergedRow,
		},
		{
			name:    "bad id",
			args:    []string{"conflicts", "resolve", "0", "-s", "manual"},
			wantErr: ErrInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			out, err := run(t, api, testConfig(), tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.EqualValues(t, 3, api.resolvedID)
			assert.Equal(t, tt.wantStrategy, api.resolvedStrategy)
			assert.Equal(t, tt.wantMerged, api.resolvedMerged)
			assert.Contains(t, out, "conflict 3 resolved with "+tt.wantStrategy)
		})
	}
}

func TestConflictsResolve_UnknownStrategy(t *testing.T) {
	_, err := run(t, &fakeAPI{}, testConfig(), "conflicts", "resolve", "3", "-s", "coin_flip")
	assert.ErrorContains(t, err, "unknown resolution strategy")
}

func TestLog_PassesFilters(t *testing.T) {
	api := &fakeAPI{}

	out, err := run(t, api, testConfig(), "log", "--session", "s-9", "-n", "20")
	require.NoError(t, err)
	assert.Equal(t, "s-9", api.tailSession)
	assert.Equal(t, 20, api.tailLimit)
	assert.Contains(t, out, "sync log is empty")
}

func TestToken_SignsVerifiableToken(t *testing.T) {
	cfg := testConfig()

	out, err := run(t, &fakeAPI{}, cfg, "token", "--operator", "treasurer", "--ttl", "1h")
	require.NoError(t, err)

	token, err := utils.ValidateAndParseJWTToken(string(bytes.TrimSpace([]byte(out))), cfg.TokenSignKey, cfg.TokenIssuer)
	require.NoError(t, err)
	assert.Equal(t, "treasurer", token.Operator)
}

func TestToken_NeedsSignKey(t *testing.T) {
	cfg := testConfig()
	cfg.TokenSignKey = ""

	_, err := run(t, &fakeAPI{}, cfg, "token", "--operator", "treasurer")
	assert.ErrorIs(t, err, ErrSignKeyMissing)
}

func TestVersion(t *testing.T) {
	out, err := run(t, &fakeAPI{version: models.VersionResponse{Version: "1.3.0"}}, testConfig(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "client: 1.2.0, commit abc123, built 2026-05-01")
	assert.Contains(t, out, "server: 1.3.0")

	out, err = run(t, &fakeAPI{err: adapter.ErrServiceUnavailable}, testConfig(), "version", "--client")
	require.NoError(t, err)
	assert.NotContains(t, out, "server:")
}

func TestFlagsOverrideConfig(t *testing.T) {
	var got config.ClientConfig
	factory := func(cfg config.ClientConfig, _ *logger.Logger) (adapter.OperatorAPI, error) {
		got = cfg
		return &fakeAPI{}, nil
	}

	app := NewApp(testConfig(), models.AppBuildInfo{}, logger.Nop(), WithAPIFactory(factory), WithOutput(&bytes.Buffer{}))
	err := app.Run([]string{"sync", "--address", "http://ops:9000", "--token", "tkn", "--timeout", "3s"})
	require.NoError(t, err)

	assert.Equal(t, "http://ops:9000", got.Address)
	assert.Equal(t, "tkn", got.Token)
	assert.Equal(t, 3*time.Second, got.RequestTimeout)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, &fakeAPI{}, testConfig(), "status", "--format", "yaml")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestAPIErrorIsReturned(t *testing.T) {
	_, err := run(t, &fakeAPI{err: adapter.ErrUnauthorized}, testConfig(), "status")
	assert.ErrorIs(t, err, adapter.ErrUnauthorized)
}
