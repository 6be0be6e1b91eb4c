package arbiter

import (
	"sync"
	"time"

	"github.com/MKhiriev/bank-mmudzi/models"
)

// State is the process-wide connection state. It starts optimistic in
// [models.ModePrimary] and is mutated only by the [Arbiter] that owns it.
type State struct {
	mu                  sync.Mutex
	mode                models.ConnectionMode
	consecutiveFailures int
	lastHealthCheck     time.Time
	fallbackActive      bool
	recheck             bool
}

// Snapshot is a point-in-time copy of a [State].
type Snapshot struct {
	Mode                models.ConnectionMode
	ConsecutiveFailures int
	LastHealthCheck     time.Time
	FallbackActive      bool
}

// NewState returns a State in primary mode with no probe history.
func NewState() *State {
	return &State{mode: models.ModePrimary}
}

// Snapshot copies the state under its lock.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Mode:                s.mode,
		ConsecutiveFailures: s.consecutiveFailures,
		LastHealthCheck:     s.lastHealthCheck,
		FallbackActive:      s.fallbackActive,
	}
}

// Mode returns the current mode without probing.
func (s *State) Mode() models.ConnectionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// claimProbe reports whether a probe is due at now and, if so, stamps
// lastHealthCheck so that concurrent callers do not probe too.
func (s *State) claimProbe(now time.Time, interval time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.recheck && !s.lastHealthCheck.IsZero() && now.Sub(s.lastHealthCheck) < interval {
		return false
	}
	s.recheck = false
	s.lastHealthCheck = now
	return true
}

func (s *State) requestRecheck() {
	s.mu.Lock()
	s.recheck = true
	s.mu.Unlock()
}

// recordSuccess switches to primary and reports whether this was a
// secondary-to-primary transition.
func (s *State) recordSuccess() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recovered := s.mode == models.ModeSecondary
	s.mode = models.ModePrimary
	s.consecutiveFailures = 0
	s.fallbackActive = false
	return recovered
}

func (s *State) recordFailure() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutiveFailures++
	s.mode = models.ModeSecondary
	s.fallbackActive = true
	return s.consecutiveFailures
}
