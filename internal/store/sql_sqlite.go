package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
)

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

// NewConnectSQLite opens the secondary store, creating the database file
// and its directory when they do not exist. The secondary is the fallback
// of last resort, so any failure here is fatal.
func NewConnectSQLite(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	if err := createLocalDBFileIfNotExists(cfg.DSN); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error creating database file")
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database")
		return nil, fmt.Errorf("error opening connection to DB: %w", err)
	}

	// one writer at a time keeps SQLITE_BUSY out of the tracker path
	applyPoolSettings(conn, cfg, 1, 1)

	for _, pragma := range sqlitePragmas {
		if _, err = conn.ExecContext(ctx, pragma); err != nil {
			log.Err(err).Str("func", "NewConnectSQLite").Str("pragma", pragma).Msg("error applying pragma")
			conn.Close()
			return nil, fmt.Errorf("error applying %q: %w", pragma, err)
		}
	}

	if err = conn.PingContext(ctx); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting database (ping)")
		conn.Close()
		return nil, err
	}
	log.Debug().Str("func", "NewConnectSQLite").Msg("connected to database successfully")

	return NewDB(conn, DialectSQLite, log,
		WithRetryAttempts(cfg.RetryAttempts),
		WithOperationTimeout(cfg.QueryTimeout),
	), nil
}

// createLocalDBFileIfNotExists creates the file and its parent directory.
// In-memory DSNs are left alone.
func createLocalDBFileIfNotExists(dsn string) error {
	path := sqliteFilePath(dsn)
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("error creating DB directory: %w", err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("error creating DB file: %w", err)
		}
		f.Close()
	}

	return nil
}

// sqliteFilePath extracts the file path from a DSN. In-memory databases
// have none.
func sqliteFilePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}
