package http

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/service"
	"github.com/MKhiriev/bank-mmudzi/internal/validators"
)

// Handler serves the operator API under /api and the metrics endpoint.
type Handler struct {
	// services is the business layer every route delegates to.
	services *service.Services

	// gatherer backs GET /metrics.
	gatherer prometheus.Gatherer

	// validator checks resolve requests before they reach the resolver.
	validator validators.Validator

	// logger is the fallback when a request context carries no logger.
	logger *logger.Logger
}

// NewHandler returns the operator API handler. gatherer backs GET /metrics;
// a nil gatherer serves the default Prometheus registry.
func NewHandler(services *service.Services, gatherer prometheus.Gatherer, logger *logger.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	logger.Info().Msg("http handler created")
	return &Handler{
		services:  services,
		gatherer:  gatherer,
		validator: validators.NewSyncValidator(),
		logger:    logger,
	}
}
