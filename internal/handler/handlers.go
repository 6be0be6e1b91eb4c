package handler

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/handler/http"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
)

// Handlers groups the transport handlers of mmudzi-server. Only the
// operator HTTP API exists today.
type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, gatherer prometheus.Gatherer, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, gatherer, logger)}, nil
}
