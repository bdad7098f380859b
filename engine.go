package authkit

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/pme360/authkit/internal/audit"
	internalmetrics "github.com/pme360/authkit/internal/metrics"
	"github.com/pme360/authkit/internal/rate"
	"github.com/pme360/authkit/jwt"
	"github.com/pme360/authkit/password"
	"github.com/pme360/authkit/session"
)

// Engine is the authentication core. Construct it through [Builder.Build];
// methods are safe for concurrent use afterwards.
type Engine struct {
	config       Config
	tokens       *jwt.Manager
	passwords    *password.Hasher
	sessions     *session.Store
	limiter      *rate.Limiter
	userProvider UserProvider
	audit        *internalaudit.Dispatcher
	metrics      *internalmetrics.Metrics
	logger       *slog.Logger
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns the number of audit events discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

// Login authenticates email+password credentials and issues a fresh token
// pair, superseding any previously stored refresh token for the user.
//
// Unknown email and wrong password fail identically with
// [ErrInvalidCredentials], same message and same status, so callers cannot
// probe which emails are registered.
func (e *Engine) Login(ctx context.Context, email, pass string) (*AuthResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	email = normalizeEmail(email)

	if e.limiter != nil {
		if err := e.limiter.CheckLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return nil, e.loginRateLimited(ctx, email, ip)
			}
			return nil, err
		}
	}

	user, err := e.userProvider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, e.loginRejected(ctx, email, ip, "user_not_found")
		}
		return nil, err
	}

	if !e.passwords.Verify(pass, user.PasswordHash) {
		return nil, e.loginRejected(ctx, email, ip, "password_mismatch")
	}

	if user.Status != StatusActive {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, user.ID, email, ErrAccountDisabled, func() map[string]string {
			return map[string]string{"reason": "account_" + string(user.Status)}
		})
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	if err := e.userProvider.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Login availability beats last-login freshness.
		e.warn("authkit: last-login update failed", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = now
	}

	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, email, ip); err != nil {
			e.warn("authkit: login counter reset failed", "error", err)
		}
	}

	tokens, err := e.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, email, nil, nil)

	return &AuthResult{User: user.Account(), Tokens: tokens}, nil
}

func (e *Engine) loginRejected(ctx context.Context, email, ip, reason string) error {
	if e.limiter != nil {
		if err := e.limiter.IncrementLogin(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				return e.loginRateLimited(ctx, email, ip)
			}
			e.warn("authkit: login counter increment failed", "error", err)
		}
	}
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"reason": reason}
	})
	return ErrInvalidCredentials
}

func (e *Engine) loginRateLimited(ctx context.Context, email, ip string) error {
	e.metricInc(MetricLoginRateLimited)
	e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ErrLoginRateLimited, func() map[string]string {
		return map[string]string{"ip": ip}
	})
	return ErrLoginRateLimited
}

// Refresh exchanges a valid refresh token for a new token pair. The
// presented token must verify against the refresh secret AND match the
// stored value for that user; the new refresh token displaces the old one
// atomically, so a given token can be spent at most once.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	claims, ok := e.tokens.VerifyRefresh(refreshToken)
	if !ok {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, "", "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid
	}

	nextRefresh, err := e.tokens.IssueRefresh(claims.UserID, claims.Email)
	if err != nil {
		return nil, err
	}

	err = e.sessions.RotateRefresh(
		ctx,
		claims.UserID,
		sha256.Sum256([]byte(refreshToken)),
		sha256.Sum256([]byte(nextRefresh)),
		e.tokens.RefreshTTL(),
	)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrRefreshMismatch):
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, auditEventRefreshReuse, false, claims.UserID, claims.Email, ErrRefreshReuse, nil)
			return nil, ErrRefreshReuse
		case errors.Is(err, session.ErrRefreshNotFound):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshFailure, false, claims.UserID, claims.Email, ErrRefreshInvalid, nil)
			return nil, ErrRefreshInvalid
		default:
			return nil, err
		}
	}

	user, err := e.userProvider.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The record vanished after issuance; drop the rotated token too.
			if delErr := e.sessions.DeleteRefresh(ctx, claims.UserID); delErr != nil {
				e.warn("authkit: orphan refresh cleanup failed", "user_id", claims.UserID, "error", delErr)
			}
			e.metricInc(MetricRefreshFailure)
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Status != StatusActive {
		if delErr := e.sessions.DeleteRefresh(ctx, user.ID); delErr != nil {
			e.warn("authkit: disabled-account refresh cleanup failed", "user_id", user.ID, "error", delErr)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshFailure, false, user.ID, user.Email, ErrAccountDisabled, nil)
		return nil, ErrAccountDisabled
	}

	access, err := e.tokens.IssueAccess(user.ID, user.Email, string(user.ProfileType), user.Verified)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, user.ID, user.Email, nil, nil)

	return &TokenPair{AccessToken: access, RefreshToken: nextRefresh}, nil
}

// Logout invalidates the user's stored refresh token. Idempotent: logging
// out an already logged-out user succeeds.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.DeleteRefresh(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, "", nil, nil)
	return nil
}

// ValidateAccess resolves a bearer access token into the request identity.
// Verification is fully stateless (signature and expiry only, no Redis
// round-trip) and reports ok=false on any failure.
func (e *Engine) ValidateAccess(tokenStr string) (*Identity, bool) {
	if e == nil {
		return nil, false
	}

	claims, ok := e.tokens.VerifyAccess(tokenStr)
	if !ok {
		e.metricInc(MetricValidateFailure)
		return nil, false
	}

	e.metricInc(MetricValidateSuccess)
	return &Identity{
		ID:          claims.UserID,
		Email:       claims.Email,
		ProfileType: ProfileType(claims.ProfileType),
		Verified:    claims.Verified,
	}, true
}

// issuePair issues an access+refresh pair for user and persists the
// refresh hash, superseding any prior refresh token.
func (e *Engine) issuePair(ctx context.Context, user UserRecord) (TokenPair, error) {
	access, refresh, err := e.tokens.IssuePair(user.ID, user.Email, string(user.ProfileType), user.Verified)
	if err != nil {
		return TokenPair{}, err
	}

	if err := e.sessions.SaveRefresh(ctx, user.ID, sha256.Sum256([]byte(refresh)), e.tokens.RefreshTTL()); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
