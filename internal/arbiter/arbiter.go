// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package arbiter decides which store serves data access: the primary when
// its rate-limited health check passes, the embedded secondary otherwise.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/metrics"
	"github.com/MKhiriev/bank-mmudzi/internal/store"
	"github.com/MKhiriev/bank-mmudzi/models"
)

// Connection is the store selected for one data-access call.
type Connection struct {
	Store store.Store
	Mode  models.ConnectionMode
}

// Arbiter hands out connections and keeps its [State] current.
type Arbiter struct {
	primary   store.Store
	secondary store.Store
	state     *State

	interval     time.Duration
	probeTimeout time.Duration

	onRecover func()
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *logger.Logger
}

// Option customizes an Arbiter.
type Option func(*Arbiter)

// WithState injects a shared state instead of a fresh one.
func WithState(s *State) Option {
	return func(a *Arbiter) {
		if s != nil {
			a.state = s
		}
	}
}

// WithRecoverHook sets fn to run in its own goroutine whenever the primary
// comes back after a fallback period.
func WithRecoverHook(fn func()) Option {
	return func(a *Arbiter) {
		a.onRecover = fn
	}
}

// WithMetrics reports mode changes and failed probes to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Arbiter) {
		a.metrics = m
	}
}

// WithClock replaces time.Now; used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) {
		a.now = now
	}
}

// New returns an Arbiter over the two stores.
func New(primary, secondary store.Store, cfg config.Arbiter, log *logger.Logger, opts ...Option) *Arbiter {
	a := &Arbiter{
		primary:      primary,
		secondary:    secondary,
		state:        NewState(),
		interval:     cfg.HealthCheckInterval,
		probeTimeout: cfg.ProbeTimeout,
		now:          time.Now,
		logger:       log,
	}
	if a.interval <= 0 {
		a.interval = config.DefaultHealthCheckInterval
	}
	if a.probeTimeout <= 0 {
		a.probeTimeout = config.DefaultProbeTimeout
	}
	for _, opt := range opts {
		opt(a)
	}
	a.metrics.SetMode(a.state.Mode())
	return a
}

// GetConnection returns the store for the current mode, probing the primary
// first when a health check is due. It fails with [store.ErrConnectivity]
// only when the primary probe failed and the secondary is unreachable too.
func (a *Arbiter) GetConnection(ctx context.Context) (Connection, error) {
	probed := false
	if a.state.claimProbe(a.now(), a.interval) {
		a.probe(ctx)
		probed = true
	}

	if a.state.Mode() == models.ModePrimary {
		return Connection{Store: a.primary, Mode: models.ModePrimary}, nil
	}

	if probed {
		if err := a.secondary.Ping(ctx); err != nil {
			a.logger.Error().Err(err).
				Str("func", "Arbiter.GetConnection").
				Msg("both stores are unreachable")
			if errors.Is(err, store.ErrConnectivity) {
				return Connection{}, err
			}
			return Connection{}, fmt.Errorf("%w: %w", store.ErrConnectivity, err)
		}
	}

	return Connection{Store: a.secondary, Mode: models.ModeSecondary}, nil
}

// ForceRecheck makes the next GetConnection probe the primary regardless
// of when the last probe ran.
func (a *Arbiter) ForceRecheck() {
	a.state.requestRecheck()
}

// Status returns a copy of the connection state.
func (a *Arbiter) Status() Snapshot {
	return a.state.Snapshot()
}

// Mode returns the last known mode without probing.
func (a *Arbiter) Mode() models.ConnectionMode {
	return a.state.Mode()
}

func (a *Arbiter) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, a.probeTimeout)
	defer cancel()

	err := a.primary.Ping(probeCtx)
	if err != nil {
		failures := a.state.recordFailure()
		a.metrics.ProbeFailed()
		a.metrics.SetMode(models.ModeSecondary)
		a.logger.Warn().Err(err).
			Str("func", "Arbiter.probe").
			Int("consecutive_failures", failures).
			Msg("primary store health check failed, using secondary store")
		return
	}

	recovered := a.state.recordSuccess()
	a.metrics.SetMode(models.ModePrimary)
	if !recovered {
		return
	}

	a.logger.Info().Str("func", "Arbiter.probe").Msg("primary store is reachable again")
	if a.onRecover != nil {
		go a.onRecover()
	}
}
