package handler

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
)

func TestNewHandlers(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Server
		wantErr error
	}{
		{name: "http address configured", cfg: config.Server{HTTPAddress: ":8080"}},
		{name: "no address", cfg: config.Server{}, wantErr: errNoHandlersAreCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandlers(&service.Services{}, prometheus.NewRegistry(), tt.cfg, logger.Nop())

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, h.HTTP)
		})
	}
}
