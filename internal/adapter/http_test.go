// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

func newTestAPI(t *testing.T, handler http.HandlerFunc) OperatorAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	api, err := NewHTTPOperatorAPI(config.ClientConfig{
		Address:        srv.URL,
		RequestTimeout: 2 * time.Second,
		Token:          "tkn",
	}, logger.Nop())
	require.NoError(t, err)
	return api
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "host and port", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "scheme kept", raw: "https://ops.bank.local/", want: "https://ops.bank.local"},
		{name: "whitespace", raw: "  127.0.0.1:9000 ", want: "http://127.0.0.1:9000"},
		{name: "empty", raw: "   ", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHTTPOperatorAPI_InvalidAddress(t *testing.T) {
	_, err := NewHTTPOperatorAPI(config.ClientConfig{Address: ""}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestStatus(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sync/status", r.URL.Path)
		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))

		utils.WriteJSON(w, models.SyncStatusReport{
			Mode:           models.ModeSecondary,
			FallbackActive: true,
			PendingCount:   7,
		}, http.StatusOK)
	})

	got, err := api.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.ModeSecondary, got.Mode)
	assert.True(t, got.FallbackActive)
	assert.EqualValues(t, 7, got.PendingCount)
}

func TestTrigger(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sync/trigger", r.URL.Path)
		utils.WriteJSON(w, models.TriggerSyncResponse{Scheduled: true}, http.StatusAccepted)
	})

	scheduled, err := api.Trigger(context.Background())
	require.NoError(t, err)
	assert.True(t, scheduled)
}

func TestRecheck_StoresDown(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, models.ErrorResponse{Error: "no store is reachable"}, http.StatusServiceUnavailable)
	})

	_, err := api.Recheck(context.Background())
	require.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "no store is reachable")
}

func TestListConflicts(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conflicts/", r.URL.Path)
		conflicts := []models.ConflictRecord{{ID: 3, Table: "members", RecordID: "m-1"}}
		utils.WriteJSON(w, models.ConflictsResponse{Conflicts: conflicts, Length: 1}, http.StatusOK)
	})

	got, err := api.ListConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 3, got[0].ID)
	assert.Equal(t, "m-1", got[0].RecordID)
}

func TestGetConflict_NotFound(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conflicts/42", r.URL.Path)
		utils.WriteJSON(w, models.ErrorResponse{Error: "conflict not found"}, http.StatusNotFound)
	})

	_, err := api.GetConflict(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		strategy   string
		merged     models.Row
		wantMerged bool
	}{
		{name: "strategy only", strategy: "secondary"},
		{name: "manual with merged row", strategy: "manual", merged: models.Row{"balance": 125}, wantMerged: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/conflicts/9/resolve", r.URL.Path)

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, tt.strategy, body["strategy"])
				_, hasMerged := body["merged"]
				assert.Equal(t, tt.wantMerged, hasMerged)

				utils.WriteJSON(w, models.ResolveConflictResponse{ConflictID: 9, Resolved: true}, http.StatusOK)
			})

			resolved, err := api.Resolve(context.Background(), 9, tt.strategy, tt.merged)
			require.NoError(t, err)
			assert.True(t, resolved)
		})
	}
}

func TestResolve_Unprocessable(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, models.ErrorResponse{Error: "conflict has no secondary snapshot"}, http.StatusUnprocessableEntity)
	})

	resolved, err := api.Resolve(context.Background(), 1, "secondary", nil)
	assert.False(t, resolved)
	assert.ErrorIs(t, err, ErrUnprocessable)
}

func TestTail_QueryParams(t *testing.T) {
	tests := []struct {
		name        string
		session     string
		limit       int
		wantSession string
		wantLimit   string
	}{
		{name: "defaults"},
		{name: "session and limit", session: "s-1", limit: 5, wantSession: "s-1", wantLimit: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/sync/log", r.URL.Path)
				assert.Equal(t, tt.wantSession, r.URL.Query().Get("session"))
				assert.Equal(t, tt.wantLimit, r.URL.Query().Get("limit"))

				entries := []models.LogEntry{{ID: 2, Message: "sync session started"}}
				utils.WriteJSON(w, models.SyncLogResponse{Entries: entries, Length: 1}, http.StatusOK)
			})

			got, err := api.Tail(context.Background(), tt.session, tt.limit)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "sync session started", got[0].Message)
		})
	}
}

func TestVersion(t *testing.T) {
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, models.VersionResponse{Version: "1.4.0", Commit: "abc123"}, http.StatusOK)
	})

	got, err := api.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", got.Version)
	assert.Equal(t, "abc123", got.Commit)
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"invalid limit"}`, wantErr: ErrBadRequest, wantMsg: "invalid limit"},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"token is expired or invalid"}`, wantErr: ErrUnauthorized, wantMsg: "token is expired"},
		{name: "plain text body", status: http.StatusInternalServerError, body: "boom\n", wantErr: ErrInternalServerError, wantMsg: "boom"},
		{name: "unknown status", status: http.StatusTeapot, wantMsg: "http 418: I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := api.Version(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
