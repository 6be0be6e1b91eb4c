package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type syncJob struct {
	engine      SyncEngine
	connections ConnectionProvider
	records     store.SyncRecordRepository
	interval    time.Duration
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a job that wakes up every interval, or when the engine
// is triggered, and runs a session if the primary is reachable and work is
// pending. The job is idle until Start is called.
func NewSyncJob(engine SyncEngine, connections ConnectionProvider, records store.SyncRecordRepository, interval time.Duration, log *logger.Logger) SyncJob {
	if interval <= 0 {
		interval = config.DefaultSyncInterval
	}
	return &syncJob{
		engine:      engine,
		connections: connections,
		records:     records,
		interval:    interval,
		logger:      log,
	}
}

// Start stops a running loop, if any, and launches a new one bound to ctx.
func (j *syncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.tick(jobCtx)
			case <-j.engine.Requests():
				j.tick(jobCtx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit. A session in progress
// stops at the next record boundary.
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *syncJob) tick(ctx context.Context) {
	// GetConnection drives the arbiter's health checks.
	conn, err := j.connections.GetConnection(ctx)
	if err != nil {
		j.logger.Err(err).Str("func", "syncJob.tick").Msg("no store available")
		return
	}
	if conn.Mode != models.ModePrimary {
		return
	}

	pending, err := j.records.CountByStatus(ctx, models.SyncStatusPending)
	if err != nil {
		j.logger.Err(err).Str("func", "syncJob.tick").Msg("failed to count pending records")
		return
	}
	if pending == 0 {
		return
	}

	res := j.engine.RunSync(ctx)
	if res.AlreadyActive {
		j.logger.Debug().Str("func", "syncJob.tick").Msg("sync session already active")
	}
}
