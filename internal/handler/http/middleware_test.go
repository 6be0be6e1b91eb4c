package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

func TestWithTraceID(t *testing.T) {
	tests := []struct {
		name          string
		incoming      string
		wantGenerated bool
	}{
		{name: "caller trace id is reused", incoming: "teller-42"},
		{name: "uuid is generated when absent", wantGenerated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &Handler{logger: &logger.Logger{Logger: zerolog.New(&buf)}}

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.FromRequest(r).Info().Msg("inside")
				w.WriteHeader(http.StatusTeapot)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
			if tt.incoming != "" {
				req.Header.Set(traceIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.withTraceID(next).ServeHTTP(rr, req)

			traceID := rr.Header().Get(traceIDHeader)
			require.NotEmpty(t, traceID)
			if tt.wantGenerated {
				_, err := uuid.Parse(traceID)
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.incoming, traceID)
			}
			assert.Equal(t, http.StatusTeapot, rr.Code)
			assert.Contains(t, buf.String(), `"trace_id":"`+traceID+`"`)
		})
	}
}

func TestWithLogging(t *testing.T) {
	var buf bytes.Buffer
	h := &Handler{logger: logger.Nop()}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(strings.Repeat("a", 12)))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/sync/trigger?x=1", nil)
	req = req.WithContext(zerolog.New(&buf).WithContext(req.Context()))
	rr := httptest.NewRecorder()
	h.withLogging(next).ServeHTTP(rr, req)

	out := buf.String()
	for _, want := range []string{`"method":"POST"`, `"uri":"/api/sync/trigger?x=1"`, `"status":201`, `"size":12`, `"duration":`} {
		assert.Contains(t, out, want)
	}
}

func TestWithLogging_ImplicitStatus(t *testing.T) {
	var buf bytes.Buffer
	h := &Handler{logger: logger.Nop()}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req = req.WithContext(zerolog.New(&buf).WithContext(req.Context()))
	h.withLogging(next).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"status":200`)
}

// stubAuth accepts exactly one token.
type stubAuth struct {
	enabled bool
}

func (s stubAuth) Enabled() bool { return s.enabled }

func (s stubAuth) CreateToken(_ context.Context, operator string) (models.Token, error) {
	return models.Token{SignedString: "good", Operator: operator}, nil
}

func (s stubAuth) ParseToken(_ context.Context, token string) (models.Token, error) {
	if token != "good" {
		return models.Token{}, service.ErrTokenIsExpiredOrInvalid
	}
	return models.Token{Operator: "treasurer"}, nil
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name         string
		enabled      bool
		header       string
		wantStatus   int
		wantOperator string
	}{
		{name: "disabled passes through", enabled: false, wantStatus: http.StatusOK},
		{name: "missing header", enabled: true, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", enabled: true, header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "bad token", enabled: true, header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "valid token", enabled: true, header: "Bearer good", wantStatus: http.StatusOK, wantOperator: "treasurer"},
		{name: "scheme is case insensitive", enabled: true, header: "bearer good", wantStatus: http.StatusOK, wantOperator: "treasurer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Handler{services: &service.Services{Auth: stubAuth{enabled: tt.enabled}}, logger: logger.Nop()}

			var operator string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				operator, _ = utils.GetOperatorFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/conflicts", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.auth(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOperator, operator)
		})
	}
}
