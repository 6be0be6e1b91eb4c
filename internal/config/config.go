// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration of mmudzi-server. It is
// populated by merging environment variables, command-line flags and an
// optional JSON or TOML file, then completed with defaults and validated.
type StructuredConfig struct {
	// App holds application-level settings: hash and token keys, version,
	// log level.
	App App `envPrefix:"APP_"`

	// Storage holds the primary (Postgres) and secondary (SQLite) store
	// settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Arbiter holds the primary health-probe settings.
	Arbiter Arbiter `envPrefix:"ARBITER_"`

	// Sync holds the change-tracking and reconciliation settings.
	Sync Sync `envPrefix:"SYNC_"`

	// Server holds the operator HTTP API settings.
	Server Server `envPrefix:"SERVER_"`

	// Workers holds background worker settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// FilePath is the optional path to a JSON or TOML configuration file.
	// Files ending in ".toml" are decoded as TOML, anything else as JSON.
	// Env: CONFIG
	FilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// HashKey keys the content hasher with HMAC-SHA256. Empty selects plain
	// SHA-256. Changing it invalidates the hashes of already queued changes.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// TokenSignKey signs and verifies operator API tokens. When empty the
	// operator API is served without authentication.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim of operator tokens.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration is the lifetime of issued operator tokens.
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`

	// Version is reported by GET /api/version.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// LogLevel is one of debug, info, warn, error.
	// Env: APP_LOG_LEVEL
	LogLevel string `env:"LOG_LEVEL"`
}

// Storage groups the two stores of the data layer.
type Storage struct {
	Primary   DB `envPrefix:"PRIMARY_"`
	Secondary DB `envPrefix:"SECONDARY_"`
}

// DB holds connection settings for one relational store.
type DB struct {
	// DSN is the driver connection string. For the primary this is a
	// Postgres URL, for the secondary a SQLite file path or file: URI.
	// Env: STORAGE_PRIMARY_DSN / STORAGE_SECONDARY_DSN
	DSN string `env:"DSN"`

	// MaxOpenConns bounds the connection pool. Zero keeps the default.
	MaxOpenConns int `env:"MAX_OPEN_CONNS"`

	// MaxIdleConns bounds idle pooled connections. Zero keeps the default.
	MaxIdleConns int `env:"MAX_IDLE_CONNS"`

	// ConnMaxLifetime recycles pooled connections. Zero keeps the default.
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`

	// QueryTimeout bounds a single statement round-trip. Zero leaves
	// statements unbounded.
	QueryTimeout time.Duration `env:"QUERY_TIMEOUT"`

	// RetryAttempts is how many times a transiently failing statement is
	// retried before the error is returned.
	RetryAttempts int `env:"RETRY_ATTEMPTS"`
}

// Arbiter holds the primary store health-probe settings.
type Arbiter struct {
	// HealthCheckInterval is the minimum time between two probes.
	// Env: ARBITER_HEALTH_CHECK_INTERVAL
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL"`

	// ProbeTimeout bounds one probe round-trip.
	// Env: ARBITER_PROBE_TIMEOUT
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT"`
}

// Sync holds the change tracking settings.
type Sync struct {
	// EnrolledTables is the allow-list of tables whose fallback mutations
	// are tracked and reconciled.
	// Env: SYNC_ENROLLED_TABLES (comma separated)
	EnrolledTables []string `env:"ENROLLED_TABLES" envSeparator:","`
}

// Server holds network and timeout settings of the operator HTTP API.
type Server struct {
	// HTTPAddress is the listen address in "host:port" form.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds one inbound request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds configuration for background workers.
type Workers struct {
	// SyncInterval is the period of the background sync job.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ShutdownTimeout bounds how long shutdown waits for workers to exit.
	// Env: WORKERS_SHUTDOWN_TIMEOUT
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// GetStructuredConfig loads the configuration in priority order (later
// non-zero values win): environment, command-line flags, config file.
// Missing values are filled from defaults and the result is validated.
func GetStructuredConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withFile().
		build()
}
