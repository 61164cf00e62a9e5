package goSession

import (
	"errors"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Provider ProviderConfig
	Store    StoreConfig
	Session  SessionConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
PROVIDER CONFIG
====================================
*/

// ProviderConfig defines a public type used by goSession APIs.
//
// ProviderConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ProviderConfig struct {
	// ModernBaseURL is the origin serving the /auth/v2 surface.
	ModernBaseURL string
	// LegacyBaseURL is the origin serving the legacy /auth surface and the
	// permission check. It may equal ModernBaseURL.
	LegacyBaseURL string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by goSession APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
	// ArtifactTTL bounds cached per-user artifacts. Zero disables expiry;
	// artifacts are then only removed by identity-switch or clear purges.
	ArtifactTTL time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by goSession APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// ValidateInterval enables the background validation loop when positive.
	// Zero keeps validation purely caller-driven.
	ValidateInterval time.Duration
	// RefreshLeeway makes validation treat a modern token expiring within
	// this window as already rejected, skipping the doomed provider call and
	// going straight to refresh.
	RefreshLeeway time.Duration
}

/*
====================================
AUDIT & METRICS CONFIG
====================================
*/

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: caller-driven validation,
// 30s refresh leeway, audit and metrics disabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			RedisPrefix: "gosession",
			ArtifactTTL: 24 * time.Hour,
		},
		Session: SessionConfig{
			RefreshLeeway: 30 * time.Second,
		},
		Audit: AuditConfig{
			BufferSize: 256,
			DropIfFull: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// Config holds no reference types today; a value copy is a deep copy.
	return cfg
}

type envConfig struct {
	ModernBaseURL    string        `env:"GOSESSION_MODERN_BASE_URL"`
	LegacyBaseURL    string        `env:"GOSESSION_LEGACY_BASE_URL"`
	RedisPrefix      string        `env:"GOSESSION_REDIS_PREFIX"`
	ArtifactTTL      time.Duration `env:"GOSESSION_ARTIFACT_TTL"`
	ValidateInterval time.Duration `env:"GOSESSION_VALIDATE_INTERVAL"`
	RefreshLeeway    time.Duration `env:"GOSESSION_REFRESH_LEEWAY"`
	AuditEnabled     bool          `env:"GOSESSION_AUDIT_ENABLED"`
	AuditBufferSize  int           `env:"GOSESSION_AUDIT_BUFFER"`
	MetricsEnabled   bool          `env:"GOSESSION_METRICS_ENABLED"`
}

// ConfigFromEnv builds a Config from GOSESSION_* environment variables on top
// of the defaults. Unset variables leave the default in place.
func ConfigFromEnv() (Config, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return Config{}, err
	}

	cfg := defaultConfig()
	if e.ModernBaseURL != "" {
		cfg.Provider.ModernBaseURL = e.ModernBaseURL
	}
	if e.LegacyBaseURL != "" {
		cfg.Provider.LegacyBaseURL = e.LegacyBaseURL
	}
	if e.RedisPrefix != "" {
		cfg.Store.RedisPrefix = e.RedisPrefix
	}
	if e.ArtifactTTL > 0 {
		cfg.Store.ArtifactTTL = e.ArtifactTTL
	}
	if e.ValidateInterval > 0 {
		cfg.Session.ValidateInterval = e.ValidateInterval
	}
	if e.RefreshLeeway > 0 {
		cfg.Session.RefreshLeeway = e.RefreshLeeway
	}
	cfg.Audit.Enabled = cfg.Audit.Enabled || e.AuditEnabled
	if e.AuditBufferSize > 0 {
		cfg.Audit.BufferSize = e.AuditBufferSize
	}
	cfg.Metrics.Enabled = cfg.Metrics.Enabled || e.MetricsEnabled
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Provider.ModernBaseURL == "" && cfg.Provider.LegacyBaseURL == "" {
		return errors.New("at least one provider base URL is required")
	}
	for _, base := range []string{cfg.Provider.ModernBaseURL, cfg.Provider.LegacyBaseURL} {
		if base == "" {
			continue
		}
		u, err := url.Parse(base)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("provider base URL must be absolute")
		}
	}
	if cfg.Session.RefreshLeeway < 0 {
		return errors.New("refresh leeway must not be negative")
	}
	if cfg.Session.ValidateInterval < 0 {
		return errors.New("validate interval must not be negative")
	}
	if cfg.Audit.Enabled && cfg.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
