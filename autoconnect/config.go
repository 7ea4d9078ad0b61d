// Package autoconnect drives per-device BLE connection state machines:
// retry policy, health checking, stability reporting, and event fan-out
// to subscribers, coordinating with a radio.Interface.
package autoconnect

import "time"

// RetryStrategy selects how the delay before the next retry is computed.
type RetryStrategy int

const (
	Exponential RetryStrategy = iota
	Linear
	Fixed
)

func (s RetryStrategy) String() string {
	switch s {
	case Exponential:
		return "Exponential"
	case Linear:
		return "Linear"
	case Fixed:
		return "Fixed"
	default:
		return "Unknown"
	}
}

// Config governs a managed connection's retry, timeout, and health-check
// behavior.
type Config struct {
	MaxRetries             int
	InitialRetryDelay      time.Duration
	MaxRetryDelay          time.Duration
	RetryStrategy          RetryStrategy
	ConnectionTimeout      time.Duration
	StabilityCheckInterval time.Duration
	ReconnectOnFailure     bool
	HealthCheckInterval    time.Duration
	MaxConsecutiveFailures int
}

// DefaultConfig mirrors the reference defaults: five retries, 1s initial
// backoff capped at 60s, exponential strategy, 30s connect timeout.
func DefaultConfig() Config {
	return Config{
		MaxRetries:             5,
		InitialRetryDelay:      time.Second,
		MaxRetryDelay:          60 * time.Second,
		RetryStrategy:          Exponential,
		ConnectionTimeout:      30 * time.Second,
		StabilityCheckInterval: 10 * time.Second,
		ReconnectOnFailure:     true,
		HealthCheckInterval:    30 * time.Second,
		MaxConsecutiveFailures: 3,
	}
}

// RetryDelay computes the backoff before the retryCount'th retry under
// this config's strategy, capped at MaxRetryDelay.
func (c Config) RetryDelay(retryCount int) time.Duration {
	var delay time.Duration
	switch c.RetryStrategy {
	case Exponential:
		factor := pow2(retryCount)
		if c.InitialRetryDelay > 0 && factor > int64(c.MaxRetryDelay/c.InitialRetryDelay) {
			return c.MaxRetryDelay
		}
		delay = c.InitialRetryDelay * time.Duration(factor)
	case Linear:
		delay = c.InitialRetryDelay * time.Duration(1+retryCount)
	default:
		delay = c.InitialRetryDelay
	}
	if delay > c.MaxRetryDelay {
		return c.MaxRetryDelay
	}
	return delay
}

func pow2(n int) int64 {
	if n < 0 {
		return 1
	}
	if n >= 62 {
		return 1 << 62
	}
	return int64(1) << uint(n)
}
