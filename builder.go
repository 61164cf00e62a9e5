package goSession

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/provider"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Builder defines a public type used by goSession APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	httpClient *http.Client
	auditSink  AuditSink
	now        func() time.Time

	built bool
}

// New creates a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the credential store. Required.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHTTPClient sets the HTTP client used for provider calls. The client's
// timeout is the only timeout the manager honors; unset falls back to
// http.DefaultClient.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuditSink sets the destination for audit events and implies
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	if sink != nil {
		b.config.Audit.Enabled = true
	}
	return b
}

// WithMetricsEnabled toggles in-process metrics collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithClock overrides the time source. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration, restores any persisted session from the
// credential store, starts the background validation loop when configured,
// and returns the ready Manager. A Builder can be used exactly once.
func (b *Builder) Build(ctx context.Context) (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.now == nil {
		b.now = time.Now
	}

	modernBase := b.config.Provider.ModernBaseURL
	legacyBase := b.config.Provider.LegacyBaseURL
	if legacyBase == "" {
		legacyBase = modernBase
	}
	if modernBase == "" {
		modernBase = legacyBase
	}

	m := &Manager{
		config:     b.config,
		store:      credstore.NewStore(b.redis, b.config.Store.RedisPrefix, b.config.Store.ArtifactTTL),
		api:        provider.NewClient(modernBase, legacyBase, b.httpClient),
		audit:      newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:    NewMetrics(b.config.Metrics),
		now:        b.now,
		instanceID: uuid.NewString(),
		subs:       make(map[uint64]func(Session)),
	}

	if err := m.restore(ctx); err != nil {
		m.Close()
		return nil, err
	}

	m.startAutoValidate(b.config.Session.ValidateInterval)

	b.built = true
	return m, nil
}
