package authkit

import (
	"context"
	"errors"
)

// ChangePassword replaces the user's password after verifying the current
// one. On success the stored refresh token is invalidated, which forces a
// re-login on every other device holding the old session.
func (e *Engine) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if e == nil || e.userProvider == nil {
		return ErrEngineNotReady
	}

	user, err := e.userProvider.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricPasswordChangeFailure)
			return ErrUserNotFound
		}
		return err
	}

	if !e.passwords.Verify(currentPassword, user.PasswordHash) {
		e.metricInc(MetricPasswordChangeFailure)
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, user.ID, user.Email, ErrPasswordMismatch, nil)
		return ErrPasswordMismatch
	}

	strength := e.passwords.ValidateStrength(newPassword)
	if !strength.Valid {
		e.metricInc(MetricPasswordChangeFailure)
		if len(strength.Errors) == 0 {
			return NewValidationError("password is too weak")
		}
		return NewValidationError(strength.Errors...)
	}

	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		return NewValidationError(err.Error())
	}

	if err := e.userProvider.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return err
	}

	if err := e.sessions.DeleteRefresh(ctx, user.ID); err != nil {
		return err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, user.ID, user.Email, nil, nil)
	return nil
}
