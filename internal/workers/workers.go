package workers

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

// ErrShutdownTimeout is returned by Stop when some worker did not exit in time.
var ErrShutdownTimeout = errors.New("workers did not stop within the shutdown timeout")

type Workers struct {
	workers         []Worker
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// NewWorkers groups ws. A non-positive shutdownTimeout makes Stop wait
// without bound.
func NewWorkers(shutdownTimeout time.Duration, log *logger.Logger, ws ...Worker) *Workers {
	return &Workers{workers: ws, shutdownTimeout: shutdownTimeout, logger: log}
}

// Run starts every worker in registration order.
func (w *Workers) Run(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
	w.logger.Info().Str("func", "Workers.Run").Int("workers", len(w.workers)).Msg("background workers started")
}

// Stop stops all workers concurrently and waits for them, at most
// shutdownTimeout. Workers still running after that are abandoned.
func (w *Workers) Stop() error {
	var g errgroup.Group
	for _, worker := range w.workers {
		g.Go(func() error {
			worker.Stop()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var timeout <-chan time.Time
	if w.shutdownTimeout > 0 {
		t := time.NewTimer(w.shutdownTimeout)
		defer t.Stop()
		timeout = t.C
	}

	select {
	case err := <-done:
		w.logger.Info().Str("func", "Workers.Stop").Msg("background workers stopped")
		return err
	case <-timeout:
		w.logger.Error().Str("func", "Workers.Stop").Dur("timeout", w.shutdownTimeout).Msg("background workers did not stop in time")
		return ErrShutdownTimeout
	}
}
