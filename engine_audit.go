package authkit

import (
	"context"
	"time"

	internalaudit "github.com/pme360/authkit/internal/audit"
)

const (
	auditEventLoginSuccess          = "login_success"
	auditEventLoginFailure          = "login_failure"
	auditEventLoginRateLimited      = "login_rate_limited"
	auditEventRefreshSuccess        = "refresh_success"
	auditEventRefreshFailure        = "refresh_failure"
	auditEventRefreshReuse          = "refresh_reuse_detected"
	auditEventRegisterSuccess       = "register_success"
	auditEventRegisterConflict      = "register_conflict"
	auditEventLogout                = "logout"
	auditEventPasswordChangeSuccess = "password_change_success"
	auditEventPasswordChangeFailure = "password_change_failure"
	auditEventResetRequest          = "password_reset_request"
	auditEventResetRateLimited      = "password_reset_rate_limited"
	auditEventResetSuccess          = "password_reset_success"
	auditEventResetFailure          = "password_reset_failure"
)

// emitAudit forwards an event to the dispatcher. The metadata callback is
// only invoked when auditing is enabled, so hot paths pay nothing for it.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID, email string,
	cause error,
	metadata func() map[string]string,
) {
	if e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
