package authkit

import (
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	internalaudit "github.com/pme360/authkit/internal/audit"
	internalmetrics "github.com/pme360/authkit/internal/metrics"
	"github.com/pme360/authkit/internal/rate"
	"github.com/pme360/authkit/jwt"
	"github.com/pme360/authkit/password"
	"github.com/pme360/authkit/session"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build; no I/O is performed. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userProvider UserProvider
	auditSink    AuditSink
	logger       *slog.Logger

	built bool
}

// New creates a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the session store and the rate
// limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the host's user persistence implementation.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithAuditSink sets the destination for audit events. Ignored when
// auditing is disabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the logger used for non-fatal internal warnings. When
// absent, warnings are dropped.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. It fails fast on
// missing or equal signing secrets (there is no fallback secret) and on a
// missing Redis client or user provider.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider is required")
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessSecret:  b.config.JWT.AccessSecret,
		RefreshSecret: b.config.JWT.RefreshSecret,
		AccessTTL:     b.config.JWT.AccessTTL,
		RefreshTTL:    b.config.JWT.RefreshTTL,
		Issuer:        b.config.JWT.Issuer,
		Audience:      b.config.JWT.Audience,
		Leeway:        b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	passwords, err := password.NewHasher(password.Config{
		Cost:      b.config.Password.Cost,
		MinLength: b.config.Password.MinLength,
	})
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(b.redis, b.config.Session.RedisPrefix)

	var limiter *rate.Limiter
	if b.config.RateLimit.Enabled {
		limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: b.config.RateLimit.EnableIPThrottle,
			MaxLoginAttempts: b.config.RateLimit.MaxLoginAttempts,
			LoginWindow:      b.config.RateLimit.LoginWindow,
			MaxResetRequests: b.config.RateLimit.MaxResetRequests,
			ResetWindow:      b.config.RateLimit.ResetWindow,
		})
	}

	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true

	return &Engine{
		config:       b.config,
		tokens:       tokens,
		passwords:    passwords,
		sessions:     sessions,
		limiter:      limiter,
		userProvider: b.userProvider,
		audit:        dispatcher,
		metrics: internalmetrics.New(internalmetrics.Config{
			Enabled: b.config.Metrics.Enabled,
		}),
		logger: b.logger,
	}, nil
}
