// Package config assembles BlueFusion's layered runtime configuration
// using koanf/v2: compiled-in defaults, an optional YAML file, and
// BLUEFUSION_-prefixed environment variables, in that order of
// increasing priority.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bluefusion/bluefusion-go/autoconnect"
	"github.com/bluefusion/bluefusion-go/inspector"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete BlueFusion configuration: the default retry
// policy applied to every managed device, the inspector's tunable limits,
// and any per-device overrides of the retry policy.
type Config struct {
	Retry     RetryConfig               `koanf:"retry"`
	Inspector InspectorConfig           `koanf:"inspector"`
	Devices   map[string]DeviceOverride `koanf:"devices"`
}

// RetryConfig mirrors autoconnect.Config with koanf tags and a
// string-encoded strategy, so it can be expressed in YAML or env vars.
type RetryConfig struct {
	MaxRetries             int           `koanf:"max_retries"`
	InitialRetryDelay      time.Duration `koanf:"initial_retry_delay"`
	MaxRetryDelay          time.Duration `koanf:"max_retry_delay"`
	RetryStrategy          string        `koanf:"retry_strategy"`
	ConnectionTimeout      time.Duration `koanf:"connection_timeout"`
	StabilityCheckInterval time.Duration `koanf:"stability_check_interval"`
	ReconnectOnFailure     bool          `koanf:"reconnect_on_failure"`
	HealthCheckInterval    time.Duration `koanf:"health_check_interval"`
	MaxConsecutiveFailures int           `koanf:"max_consecutive_failures"`
}

// InspectorConfig mirrors inspector.Limits with koanf tags.
type InspectorConfig struct {
	MaxHistory                int     `koanf:"max_history"`
	EncryptedEntropyThreshold float64 `koanf:"encrypted_entropy_threshold"`
}

// DeviceOverride selectively overrides RetryConfig fields for a single
// managed address. A nil field inherits the base value; a non-nil field
// replaces it, even when it points at a zero value. Config.ForDevice
// applies the merge.
type DeviceOverride struct {
	MaxRetries             *int           `koanf:"max_retries"`
	InitialRetryDelay      *time.Duration `koanf:"initial_retry_delay"`
	MaxRetryDelay          *time.Duration `koanf:"max_retry_delay"`
	RetryStrategy          *string        `koanf:"retry_strategy"`
	ConnectionTimeout      *time.Duration `koanf:"connection_timeout"`
	StabilityCheckInterval *time.Duration `koanf:"stability_check_interval"`
	ReconnectOnFailure     *bool          `koanf:"reconnect_on_failure"`
	HealthCheckInterval    *time.Duration `koanf:"health_check_interval"`
	MaxConsecutiveFailures *int           `koanf:"max_consecutive_failures"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config seeded from autoconnect.DefaultConfig
// and inspector.DefaultLimits, with no per-device overrides.
func DefaultConfig() *Config {
	rc := autoconnect.DefaultConfig()
	lim := inspector.DefaultLimits()
	return &Config{
		Retry:     retryConfigFrom(rc),
		Inspector: InspectorConfig{
			MaxHistory:                lim.MaxHistory,
			EncryptedEntropyThreshold: lim.EncryptedEntropyThreshold,
		},
		Devices: map[string]DeviceOverride{},
	}
}

func retryConfigFrom(c autoconnect.Config) RetryConfig {
	return RetryConfig{
		MaxRetries:             c.MaxRetries,
		InitialRetryDelay:      c.InitialRetryDelay,
		MaxRetryDelay:          c.MaxRetryDelay,
		RetryStrategy:          c.RetryStrategy.String(),
		ConnectionTimeout:      c.ConnectionTimeout,
		StabilityCheckInterval: c.StabilityCheckInterval,
		ReconnectOnFailure:     c.ReconnectOnFailure,
		HealthCheckInterval:    c.HealthCheckInterval,
		MaxConsecutiveFailures: c.MaxConsecutiveFailures,
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for BlueFusion configuration.
// Nested keys use a double underscore separator, e.g.
// BLUEFUSION_RETRY__MAX_RETRIES -> retry.max_retries.
const envPrefix = "BLUEFUSION_"

// Load reads configuration from an optional YAML file at path, overlays
// BLUEFUSION_-prefixed environment variable overrides, and merges both on
// top of DefaultConfig(). An empty path skips the file layer. Missing
// fields inherit defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Devices == nil {
		cfg.Devices = map[string]DeviceOverride{}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms BLUEFUSION_RETRY__MAX_RETRIES -> retry.max_retries.
// Strips the BLUEFUSION_ prefix, lowercases, and replaces a double
// underscore (the nesting separator) with a dot; single underscores
// within a key name are left intact.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"retry.max_retries":              defaults.Retry.MaxRetries,
		"retry.initial_retry_delay":      defaults.Retry.InitialRetryDelay.String(),
		"retry.max_retry_delay":          defaults.Retry.MaxRetryDelay.String(),
		"retry.retry_strategy":           defaults.Retry.RetryStrategy,
		"retry.connection_timeout":       defaults.Retry.ConnectionTimeout.String(),
		"retry.stability_check_interval": defaults.Retry.StabilityCheckInterval.String(),
		"retry.reconnect_on_failure":     defaults.Retry.ReconnectOnFailure,
		"retry.health_check_interval":    defaults.Retry.HealthCheckInterval.String(),
		"retry.max_consecutive_failures": defaults.Retry.MaxConsecutiveFailures,
		"inspector.max_history":          defaults.Inspector.MaxHistory,
		"inspector.encrypted_entropy_threshold": defaults.Inspector.EncryptedEntropyThreshold,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

var (
	// ErrInvalidMaxRetries indicates retry.max_retries is negative.
	ErrInvalidMaxRetries = errors.New("retry.max_retries must be >= 0")

	// ErrInvalidRetryStrategy indicates retry.retry_strategy names an
	// unrecognized strategy.
	ErrInvalidRetryStrategy = errors.New("retry.retry_strategy must be Exponential, Linear, or Fixed")

	// ErrInvalidConnectionTimeout indicates retry.connection_timeout is
	// not positive.
	ErrInvalidConnectionTimeout = errors.New("retry.connection_timeout must be > 0")

	// ErrInvalidMaxHistory indicates inspector.max_history is not positive.
	ErrInvalidMaxHistory = errors.New("inspector.max_history must be > 0")

	// ErrInvalidEntropyThreshold indicates inspector.encrypted_entropy_threshold
	// falls outside the valid Shannon entropy range.
	ErrInvalidEntropyThreshold = errors.New("inspector.encrypted_entropy_threshold must be within [0, 8]")
)

// Validate checks the configuration for logical errors. Returns the first
// validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if _, ok := parseRetryStrategy(cfg.Retry.RetryStrategy); !ok {
		return ErrInvalidRetryStrategy
	}
	if cfg.Retry.ConnectionTimeout <= 0 {
		return ErrInvalidConnectionTimeout
	}
	if cfg.Inspector.MaxHistory <= 0 {
		return ErrInvalidMaxHistory
	}
	if cfg.Inspector.EncryptedEntropyThreshold < 0 || cfg.Inspector.EncryptedEntropyThreshold > 8 {
		return ErrInvalidEntropyThreshold
	}
	for addr, ov := range cfg.Devices {
		if ov.RetryStrategy != nil {
			if _, ok := parseRetryStrategy(*ov.RetryStrategy); !ok {
				return fmt.Errorf("devices[%s]: %w", addr, ErrInvalidRetryStrategy)
			}
		}
	}
	return nil
}

// -------------------------------------------------------------------------
// Conversion to domain types
// -------------------------------------------------------------------------

// parseRetryStrategy maps a configuration strategy string to
// autoconnect.RetryStrategy, case-insensitively.
func parseRetryStrategy(s string) (autoconnect.RetryStrategy, bool) {
	switch strings.ToLower(s) {
	case "exponential":
		return autoconnect.Exponential, true
	case "linear":
		return autoconnect.Linear, true
	case "fixed":
		return autoconnect.Fixed, true
	default:
		return 0, false
	}
}

// AutoConnectConfig converts RetryConfig into autoconnect.Config. The
// caller is expected to have run Validate first; an unrecognized strategy
// falls back to Exponential.
func (rc RetryConfig) AutoConnectConfig() autoconnect.Config {
	strategy, ok := parseRetryStrategy(rc.RetryStrategy)
	if !ok {
		strategy = autoconnect.Exponential
	}
	return autoconnect.Config{
		MaxRetries:             rc.MaxRetries,
		InitialRetryDelay:      rc.InitialRetryDelay,
		MaxRetryDelay:          rc.MaxRetryDelay,
		RetryStrategy:          strategy,
		ConnectionTimeout:      rc.ConnectionTimeout,
		StabilityCheckInterval: rc.StabilityCheckInterval,
		ReconnectOnFailure:     rc.ReconnectOnFailure,
		HealthCheckInterval:    rc.HealthCheckInterval,
		MaxConsecutiveFailures: rc.MaxConsecutiveFailures,
	}
}

// InspectorLimits converts InspectorConfig into inspector.Limits.
func (ic InspectorConfig) InspectorLimits() inspector.Limits {
	return inspector.Limits{
		MaxHistory:                ic.MaxHistory,
		EncryptedEntropyThreshold: ic.EncryptedEntropyThreshold,
	}
}

// ForDevice applies any override registered for address on top of the
// base retry config, returning the effective autoconnect.Config for that
// device. Devices with no override get the base config unchanged.
func (c *Config) ForDevice(address string) autoconnect.Config {
	base := c.Retry
	if ov, ok := c.Devices[address]; ok {
		base = applyOverride(base, ov)
	}
	return base.AutoConnectConfig()
}

func applyOverride(base RetryConfig, ov DeviceOverride) RetryConfig {
	if ov.MaxRetries != nil {
		base.MaxRetries = *ov.MaxRetries
	}
	if ov.InitialRetryDelay != nil {
		base.InitialRetryDelay = *ov.InitialRetryDelay
	}
	if ov.MaxRetryDelay != nil {
		base.MaxRetryDelay = *ov.MaxRetryDelay
	}
	if ov.RetryStrategy != nil {
		base.RetryStrategy = *ov.RetryStrategy
	}
	if ov.ConnectionTimeout != nil {
		base.ConnectionTimeout = *ov.ConnectionTimeout
	}
	if ov.StabilityCheckInterval != nil {
		base.StabilityCheckInterval = *ov.StabilityCheckInterval
	}
	if ov.ReconnectOnFailure != nil {
		base.ReconnectOnFailure = *ov.ReconnectOnFailure
	}
	if ov.HealthCheckInterval != nil {
		base.HealthCheckInterval = *ov.HealthCheckInterval
	}
	if ov.MaxConsecutiveFailures != nil {
		base.MaxConsecutiveFailures = *ov.MaxConsecutiveFailures
	}
	return base
}
