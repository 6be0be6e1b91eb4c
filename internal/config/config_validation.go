// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"regexp"
)

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// validate checks the merged and defaulted [StructuredConfig].
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.Primary.DSN == "" || cfg.Storage.Secondary.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Arbiter.HealthCheckInterval < 0 || cfg.Arbiter.ProbeTimeout <= 0 {
		return ErrInvalidArbiterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.ShutdownTimeout <= 0 {
		return ErrInvalidWorkerConfigs
	}

	for _, table := range cfg.Sync.EnrolledTables {
		if !tableNameRe.MatchString(table) {
			return fmt.Errorf("%w: table %q", ErrInvalidSyncConfigs, table)
		}
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Address == "" || cfg.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}

	return nil
}
