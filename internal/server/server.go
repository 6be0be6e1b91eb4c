package server

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/handler"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/workers"
)

type server struct {
	httpServer *httpServer
	workers    *workers.Workers
	logger     *logger.Logger

	shutdownOnce sync.Once
}

// NewServer builds the server. ws may be nil when no background work runs.
func NewServer(handlers *handler.Handlers, ws *workers.Workers, cfg config.StructuredConfig, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if handlers == nil || handlers.HTTP == nil || cfg.Server.HTTPAddress == "" {
		return nil, errNoServersAreCreated
	}

	return &server{
		httpServer: newHTTPServer(handlers.HTTP.Init(), cfg.Server, cfg.Workers.ShutdownTimeout, logger),
		workers:    ws,
		logger:     logger,
	}, nil
}

func (s *server) RunServer() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	return s.run(ctx)
}

// Shutdown stops accepting requests first, then stops the workers so that
// a running sync session ends at a record boundary.
func (s *server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.httpServer.Shutdown()
		if s.workers != nil {
			if err := s.workers.Stop(); err != nil {
				s.logger.Err(err).Str("func", "server.Shutdown").Msg("workers shutdown failed")
			}
		}
	})
}

func (s *server) run(ctx context.Context) error {
	if s.workers != nil {
		s.workers.Run(ctx)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.httpServer.RunServer() }()

	var err error
	select {
	case <-ctx.Done():
		s.logger.Info().Msg("stop signal received")
	case err = <-serveErr:
	}

	s.Shutdown()
	if err != nil {
		return err
	}

	s.logger.Info().Msg("server Shutdown gracefully")
	return nil
}
