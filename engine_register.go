package authkit

import (
	"context"
	"errors"
	"strings"
)

// Register creates a new account. The email is lowercased and trimmed and
// the name trimmed before anything is persisted; the password must pass
// the strength gate first, so a rejected registration never writes a
// partial record. New accounts start active, unverified, with the
// configured initial completion score.
//
// When AutoLogin is enabled (the default) the result carries a freshly
// issued token pair and the refresh token is stored for the new user.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	if e == nil || e.userProvider == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)

	var violations []string
	if email == "" {
		violations = append(violations, "email is required")
	}
	if name == "" {
		violations = append(violations, "name is required")
	}
	if !req.ProfileType.Valid() {
		violations = append(violations, "unknown profile type")
	}
	strength := e.passwords.ValidateStrength(req.Password)
	if !strength.Valid {
		violations = append(violations, strength.Errors...)
		if len(strength.Errors) == 0 {
			violations = append(violations, "password is too weak")
		}
	}
	if len(violations) > 0 {
		e.metricInc(MetricRegisterRejected)
		return nil, NewValidationError(violations...)
	}

	if _, err := e.userProvider.FindByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, auditEventRegisterConflict, false, "", email, ErrEmailTaken, nil)
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := e.passwords.Hash(req.Password)
	if err != nil {
		return nil, NewValidationError(err.Error())
	}

	user, err := e.userProvider.Create(ctx, CreateUserInput{
		Email:           email,
		Name:            name,
		PasswordHash:    hash,
		ProfileType:     req.ProfileType,
		Status:          StatusActive,
		Verified:        false,
		CompletionScore: e.config.Account.InitialCompletionScore,
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Lost the race against a concurrent registration.
			e.metricInc(MetricRegisterConflict)
			e.emitAudit(ctx, auditEventRegisterConflict, false, "", email, ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	result := &AuthResult{User: user.Account()}

	if e.config.Account.AutoLogin {
		tokens, err := e.issuePair(ctx, user)
		if err != nil {
			return nil, err
		}
		result.Tokens = tokens
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.ID, email, nil, func() map[string]string {
		return map[string]string{"profile_type": string(user.ProfileType)}
	})

	return result, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
