// Package migrations embeds and applies the goose migrations of both stores.
//
// primary/ holds the business tables of the Postgres primary store.
// secondary/ holds the same business tables plus the sync bookkeeping
// tables (pending-change queue, conflicts, sync log) that live only on
// the SQLite secondary store.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

//go:embed primary/*.sql secondary/*.sql
var embedMigrations embed.FS

const (
	dirPrimary   = "primary"
	dirSecondary = "secondary"
)

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

// MigratePrimary applies the primary (Postgres) migrations.
func MigratePrimary(db *sql.DB, log *logger.Logger) error {
	return migrate(db, "pgx", dirPrimary, log)
}

// MigrateSecondary applies the secondary (SQLite) migrations.
func MigrateSecondary(db *sql.DB, log *logger.Logger) error {
	return migrate(db, "sqlite3", dirSecondary, log)
}

func migrate(db *sql.DB, dialect, dir string, log *logger.Logger) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{log: log, dir: dir})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error (%s): %w", dir, err)
	}

	return nil
}

// gooseLogger routes goose output through zerolog.
type gooseLogger struct {
	log *logger.Logger
	dir string
}

func (g gooseLogger) Printf(format string, v ...any) {
	if g.log == nil {
		return
	}
	g.log.Debug().Str("func", "migrations.migrate").Str("set", g.dir).Msgf(format, v...)
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	if g.log == nil {
		return
	}
	g.log.Error().Str("func", "migrations.migrate").Str("set", g.dir).Msgf(format, v...)
}
