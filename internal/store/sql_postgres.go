package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

// NewConnectPostgres opens the primary store. The pool is created even when
// the server is down so the arbiter can keep probing it; the initial ping
// failure is logged and reported through the returned error alongside a
// usable *DB.
func NewConnectPostgres(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	conn, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error occured during database connection")
		return nil, fmt.Errorf("error occured during database connection: %w", err)
	}

	applyPoolSettings(conn, cfg, 10, 4)

	db := NewDB(conn, DialectPostgres, log,
		WithRetryAttempts(cfg.RetryAttempts),
		WithOperationTimeout(cfg.QueryTimeout),
	)

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectPostgres").Msg("error connecting database (ping)")
		return db, db.classify(err)
	}
	log.Info().Str("func", "NewConnectPostgres").Msg("connected to database successfully")

	return db, nil
}

// applyPoolSettings uses the defaults for zero config values.
func applyPoolSettings(conn *sql.DB, cfg config.DB, defaultOpen, defaultIdle int) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = defaultOpen
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = defaultIdle
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}
