package client

import (
	"github.com/MKhiriev/bank-mmudzi/internal/adapter"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

// Client defines the lifecycle contract of a runnable client application.
type Client interface {
	// Run executes the command line in args and returns its error.
	Run(args []string) error
}

// APIFactory builds the operator API from the effective configuration,
// after command-line flags were applied.
type APIFactory func(cfg config.ClientConfig, logger *logger.Logger) (adapter.OperatorAPI, error)
