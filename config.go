package authkit

import (
	"bytes"
	"errors"
	"fmt"
	"time"
)

// Config is the full engine configuration tree. Instances are treated as
// immutable after [Builder.Build].
type Config struct {
	JWT           JWTConfig
	Session       SessionConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	Account       AccountConfig
	RateLimit     RateLimitConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
	Security      SecurityConfig
}

// JWTConfig holds token signing material and lifetimes. AccessSecret and
// RefreshSecret MUST differ; a token signed with one secret never verifies
// against the other.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// SessionConfig controls the Redis key namespace. The store holds exactly
// one refresh-token hash per user; the stored TTL always equals the signed
// refresh expiry, so cryptographic validity and store presence lapse
// together. A per-device session model would need session identifiers in
// the refresh claims and is deliberately not supported.
type SessionConfig struct {
	RedisPrefix string
}

// PasswordConfig holds bcrypt parameters and the minimum accepted length.
type PasswordConfig struct {
	Cost      int
	MinLength int
}

// PasswordResetConfig controls reset-challenge issuance. Challenges are
// single-use and expire after ResetTTL.
type PasswordResetConfig struct {
	ResetTTL   time.Duration
	TokenBytes int
}

// AccountConfig controls registration behavior.
type AccountConfig struct {
	AutoLogin              bool
	InitialCompletionScore int
}

// RateLimitConfig tunes the fixed-window throttles for login and
// password-reset requests. IP throttling additionally keys on the client
// IP attached via [WithClientIP].
type RateLimitConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginWindow      time.Duration
	MaxResetRequests int
	ResetWindow      time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// SecurityConfig holds deployment-posture switches. In production mode the
// secret length floor is enforced in addition to the always-on checks.
type SecurityConfig struct {
	ProductionMode bool
}

const productionMinSecretLen = 32

// DefaultConfig returns the baseline configuration: 24h access tokens,
// 7d refresh tokens, bcrypt cost 12, 1h reset challenges, audit and
// metrics enabled. Secrets are intentionally absent: there is no fallback
// value, and [Builder.Build] refuses to start without them.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  24 * time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "pme360-api",
			Audience:   "pme360-client",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Cost:      12,
			MinLength: 6,
		},
		PasswordReset: PasswordResetConfig{
			ResetTTL:   time.Hour,
			TokenBytes: 32,
		},
		Account: AccountConfig{
			AutoLogin:              true,
			InitialCompletionScore: 25,
		},
		RateLimit: RateLimitConfig{
			Enabled:          true,
			MaxLoginAttempts: 10,
			LoginWindow:      15 * time.Minute,
			MaxResetRequests: 3,
			ResetWindow:      time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if len(cfg.JWT.AccessSecret) == 0 {
		return errors.New("JWT access secret is not configured")
	}
	if len(cfg.JWT.RefreshSecret) == 0 {
		return errors.New("JWT refresh secret is not configured")
	}
	if bytes.Equal(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if cfg.Security.ProductionMode {
		if len(cfg.JWT.AccessSecret) < productionMinSecretLen {
			return fmt.Errorf("access secret must be at least %d bytes in production mode", productionMinSecretLen)
		}
		if len(cfg.JWT.RefreshSecret) < productionMinSecretLen {
			return fmt.Errorf("refresh secret must be at least %d bytes in production mode", productionMinSecretLen)
		}
	}
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if cfg.JWT.RefreshTTL < cfg.JWT.AccessTTL {
		return errors.New("refresh TTL must not be shorter than access TTL")
	}
	if cfg.PasswordReset.ResetTTL <= 0 {
		return errors.New("reset TTL must be positive")
	}
	if cfg.PasswordReset.TokenBytes < 16 {
		return errors.New("reset token must be at least 16 random bytes")
	}
	if cfg.Account.InitialCompletionScore < 0 || cfg.Account.InitialCompletionScore > 100 {
		return errors.New("initial completion score must be within [0,100]")
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.MaxLoginAttempts <= 0 || cfg.RateLimit.LoginWindow <= 0 {
			return errors.New("login rate limit requires positive attempts and window")
		}
		if cfg.RateLimit.MaxResetRequests <= 0 || cfg.RateLimit.ResetWindow <= 0 {
			return errors.New("reset rate limit requires positive attempts and window")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = append([]byte(nil), cfg.JWT.AccessSecret...)
	out.JWT.RefreshSecret = append([]byte(nil), cfg.JWT.RefreshSecret...)
	return out
}
