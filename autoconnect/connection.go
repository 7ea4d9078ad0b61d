package autoconnect

import (
	"sync"
	"time"
)

// ManagedConnection is the per-address state the manager owns: config,
// current state, retry bookkeeping, and metrics. Every field access goes
// through the embedded mutex since the manager's per-device task, the
// stability monitor, and external event ingestion all touch it.
type ManagedConnection struct {
	mu sync.Mutex

	Address           string
	Config            Config
	State             State
	Metrics           Metrics
	RetryCount        int
	ConnectStartedAt  *time.Time
	LastActivityAt    *time.Time
	Enabled           bool
	PausedUntil       *time.Time
}

func newManagedConnection(address string, cfg Config) *ManagedConnection {
	return &ManagedConnection{
		Address: address,
		Config:  cfg,
		State:   Disconnected,
		Enabled: true,
	}
}

// shouldRetry reports whether a new connection attempt is permitted right
// now: the device must be enabled, not paused, and under both the retry
// and consecutive-failure ceilings.
func (c *ManagedConnection) shouldRetry(now time.Time) bool {
	if !c.Enabled {
		return false
	}
	if c.PausedUntil != nil && now.Before(*c.PausedUntil) {
		return false
	}
	if c.RetryCount >= c.Config.MaxRetries {
		return false
	}
	if c.Metrics.ConsecutiveFailures >= c.Config.MaxConsecutiveFailures {
		return false
	}
	return true
}

func (c *ManagedConnection) pause(now time.Time, duration time.Duration) {
	until := now.Add(duration)
	c.PausedUntil = &until
	c.State = Paused
}

// snapshot returns a value copy safe to hand to subscribers without
// holding the connection's lock.
func (c *ManagedConnection) snapshot() ManagedConnectionView {
	return ManagedConnectionView{
		Address:     c.Address,
		Config:      c.Config,
		State:       c.State,
		Metrics:     c.Metrics,
		RetryCount:  c.RetryCount,
		Enabled:     c.Enabled,
		PausedUntil: c.PausedUntil,
	}
}

// ManagedConnectionView is an immutable snapshot of a ManagedConnection,
// safe to read without synchronization.
type ManagedConnectionView struct {
	Address     string
	Config      Config
	State       State
	Metrics     Metrics
	RetryCount  int
	Enabled     bool
	PausedUntil *time.Time
}
