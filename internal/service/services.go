package service

import (
	"context"

	"github.com/MKhiriev/bank-mmudzi/internal/arbiter"
	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/hasher"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/metrics"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type Services struct {
	Connections ConnectionProvider
	Tracker     ChangeTracker
	Engine      SyncEngine
	Resolver    ConflictResolver
	SyncLog     SyncLogService
	Status      StatusService
	Records     RecordService
	SyncJob     SyncJob
	AppInfo     AppInfoService
	Auth        AuthService
}

// NewServices wires the data layer over storages. When the arbiter sees
// the primary come back it migrates the primary schema if that was
// deferred at startup, then asks the sync job for a run.
func NewServices(storages *store.Storages, cfg config.StructuredConfig, build models.AppBuildInfo, m *metrics.Metrics, log *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, build, log)
	if err != nil {
		return nil, err
	}

	h := hasher.New(cfg.App.HashKey)
	syncLog := NewSyncLogService(storages.SyncLog, log)
	engine := NewSyncEngine(storages.Primary, storages.Secondary, storages.SyncRecords, storages.Conflicts, syncLog, h, m, log)

	arb := arbiter.New(storages.Primary, storages.Secondary, cfg.Arbiter, log,
		arbiter.WithMetrics(m),
		arbiter.WithRecoverHook(func() {
			if err := storages.EnsurePrimarySchema(context.Background()); err != nil {
				log.Err(err).Str("func", "NewServices.onRecover").Msg("primary schema migration failed")
				return
			}
			engine.Trigger()
		}),
	)

	tracker := NewChangeTracker(storages.SyncRecords, h, cfg.Sync.EnrolledTables, log)

	return &Services{
		Connections: arb,
		Tracker:     tracker,
		Engine:      engine,
		Resolver:    NewConflictResolver(storages.Primary, storages.Conflicts, syncLog, log),
		SyncLog:     syncLog,
		Status:      NewStatusService(arb, storages.SyncRecords, storages.Conflicts, engine),
		Records:     NewRecordService(arb, tracker, log),
		SyncJob:     NewSyncJob(engine, arb, storages.SyncRecords, cfg.Workers.SyncInterval, log),
		AppInfo:     appInfo,
		Auth:        NewAuthService(cfg.App, log),
	}, nil
}
