package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

// Names of the two stores as they appear in logs and metrics.
const (
	PrimaryName   = "primary"
	SecondaryName = "secondary"
)

// Storages groups both stores and the secondary-only bookkeeping
// repositories.
type Storages struct {
	Primary   *SQLStore
	Secondary *SQLStore

	SyncRecords SyncRecordRepository
	Conflicts   ConflictRepository
	SyncLog     SyncLogRepository

	primaryMu       sync.Mutex
	primaryMigrated bool
	logger          *logger.Logger
}

// NewStorages opens both stores and applies migrations.
//
// The secondary must be usable: any failure there is returned. The primary
// may be down at startup; in that case its schema is migrated later by
// EnsurePrimarySchema and the data layer starts in fallback.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	log.Info().Str("func", "NewStorages").Msg("creating new storages...")

	secondaryDB, err := NewConnectSQLite(ctx, cfg.Secondary, log)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}
	if err = secondaryDB.Migrate(); err != nil {
		secondaryDB.Close()
		return nil, fmt.Errorf("secondary migration failed: %w", err)
	}

	primaryDB, err := NewConnectPostgres(ctx, cfg.Primary, log)
	if primaryDB == nil {
		secondaryDB.Close()
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	s := &Storages{
		Primary:     NewSQLStore(PrimaryName, primaryDB, log),
		Secondary:   NewSQLStore(SecondaryName, secondaryDB, log),
		SyncRecords: NewSyncRecordRepository(secondaryDB, log),
		Conflicts:   NewConflictRepository(secondaryDB, log),
		SyncLog:     NewSyncLogRepository(secondaryDB, log),
		logger:      log,
	}

	if err != nil {
		log.Warn().Err(err).Str("func", "NewStorages").Msg("primary store unreachable at startup, starting in fallback")
		return s, nil
	}
	if err = s.EnsurePrimarySchema(ctx); err != nil {
		log.Warn().Err(err).Str("func", "NewStorages").Msg("primary schema migration deferred")
	}

	return s, nil
}

// EnsurePrimarySchema migrates the primary store once per process.
func (s *Storages) EnsurePrimarySchema(_ context.Context) error {
	s.primaryMu.Lock()
	defer s.primaryMu.Unlock()

	if s.primaryMigrated {
		return nil
	}
	if err := s.Primary.DB().Migrate(); err != nil {
		return fmt.Errorf("primary migration failed: %w", err)
	}
	s.primaryMigrated = true
	s.logger.Info().Str("func", "Storages.EnsurePrimarySchema").Msg("primary schema is up to date")

	return nil
}

// Close closes both connection pools.
func (s *Storages) Close() error {
	return errors.Join(s.Primary.DB().Close(), s.Secondary.DB().Close())
}
