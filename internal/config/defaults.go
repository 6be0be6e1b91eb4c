package config

import "time"

// Defaults applied to zero-valued fields after all sources are merged.
const (
	DefaultHTTPAddress         = "localhost:8080"
	DefaultRequestTimeout      = 15 * time.Second
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultProbeTimeout        = 5 * time.Second
	DefaultSyncInterval        = time.Minute
	DefaultShutdownTimeout     = 10 * time.Second
	DefaultTokenIssuer         = "mmudzi-server"
	DefaultTokenDuration       = 12 * time.Hour
	DefaultRetryAttempts       = 3
	DefaultLogLevel            = "debug"
)

// DefaultEnrolledTables are the association's business tables.
var DefaultEnrolledTables = []string{"members", "contributions", "loans", "repayments", "dividends"}

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Server.HTTPAddress == "" {
		cfg.Server.HTTPAddress = DefaultHTTPAddress
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Arbiter.HealthCheckInterval == 0 {
		cfg.Arbiter.HealthCheckInterval = DefaultHealthCheckInterval
	}
	if cfg.Arbiter.ProbeTimeout == 0 {
		cfg.Arbiter.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Workers.SyncInterval == 0 {
		cfg.Workers.SyncInterval = DefaultSyncInterval
	}
	if cfg.Workers.ShutdownTimeout == 0 {
		cfg.Workers.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.App.TokenIssuer == "" {
		cfg.App.TokenIssuer = DefaultTokenIssuer
	}
	if cfg.App.TokenDuration == 0 {
		cfg.App.TokenDuration = DefaultTokenDuration
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = DefaultLogLevel
	}
	if cfg.Storage.Primary.RetryAttempts == 0 {
		cfg.Storage.Primary.RetryAttempts = DefaultRetryAttempts
	}
	if cfg.Storage.Secondary.RetryAttempts == 0 {
		cfg.Storage.Secondary.RetryAttempts = DefaultRetryAttempts
	}
	if len(cfg.Sync.EnrolledTables) == 0 {
		cfg.Sync.EnrolledTables = append([]string(nil), DefaultEnrolledTables...)
	}
}
