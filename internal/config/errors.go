package config

import "errors"

// Validation errors returned when required configuration groups are
// incomplete or invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid operator client settings
	// (for example, a missing API address).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidStorageConfigs indicates that a primary or secondary DSN
	// is missing.
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidArbiterConfigs indicates a negative health-check interval
	// or a non-positive probe timeout.
	ErrInvalidArbiterConfigs = errors.New("invalid arbiter configuration")
	// ErrInvalidSyncConfigs indicates an enrolled table name that is not a
	// plain lower-case SQL identifier.
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidWorkerConfigs indicates non-positive worker intervals.
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
