package authkit

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/pme360/authkit/internal/rate"
	"github.com/pme360/authkit/session"
)

// RequestPasswordReset issues a single-use reset challenge for the account
// behind email. Only the SHA-256 of the token is stored, keyed by user id
// with the configured TTL; delivering the plaintext token to the user is
// the host's concern.
//
// An unknown email returns (nil, nil): callers answer identically whether
// or not the account exists, so the endpoint cannot be used to enumerate
// registered addresses.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (*PasswordResetChallenge, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	ip := clientIPFromContext(ctx)
	email = normalizeEmail(email)

	if e.limiter != nil {
		if err := e.limiter.CheckResetRequest(ctx, email, ip); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.emitAudit(ctx, auditEventResetRateLimited, false, "", email, ErrResetRateLimited, nil)
				return nil, ErrResetRateLimited
			}
			return nil, err
		}
	}

	e.metricInc(MetricResetRequest)

	user, err := e.userProvider.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	raw := make([]byte, e.config.PasswordReset.TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	ttl := e.config.PasswordReset.ResetTTL
	if err := e.sessions.SaveReset(ctx, user.ID, sha256.Sum256([]byte(token)), ttl); err != nil {
		return nil, err
	}

	e.emitAudit(ctx, auditEventResetRequest, true, user.ID, email, nil, nil)

	return &PasswordResetChallenge{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// ResetPassword consumes a reset challenge and sets a new password. The
// challenge is deleted on success and the stored refresh token is
// invalidated, closing every live session.
func (e *Engine) ResetPassword(ctx context.Context, userID, resetToken, newPassword string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	strength := e.passwords.ValidateStrength(newPassword)
	if !strength.Valid {
		e.metricInc(MetricResetFailure)
		if len(strength.Errors) == 0 {
			return NewValidationError("password is too weak")
		}
		return NewValidationError(strength.Errors...)
	}

	err := e.sessions.ConsumeReset(ctx, userID, sha256.Sum256([]byte(resetToken)))
	if err != nil {
		if errors.Is(err, session.ErrResetNotFound) || errors.Is(err, session.ErrResetMismatch) {
			e.metricInc(MetricResetFailure)
			e.emitAudit(ctx, auditEventResetFailure, false, userID, "", ErrResetInvalid, nil)
			return ErrResetInvalid
		}
		return err
	}

	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		return NewValidationError(err.Error())
	}

	if err := e.userProvider.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	if err := e.sessions.DeleteRefresh(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventResetSuccess, true, userID, "", nil, nil)
	return nil
}
