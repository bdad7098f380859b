package authkit

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by Login for both unknown-email and
	// wrong-password failures. The message is the exact user-facing string
	// the platform shows in either case; keeping them identical is what
	// prevents user enumeration.
	ErrInvalidCredentials = errors.New("Identifiants invalides")
	// ErrUserNotFound is returned when a referenced user record is absent.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Register when the email is already in use.
	ErrEmailTaken = errors.New("email already registered")
	// ErrRefreshInvalid is returned when a refresh token fails signature or
	// expiry verification, or when no token is stored for the user.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is returned when a signature-valid refresh token no
	// longer matches the stored one: it was superseded by a later issuance.
	ErrRefreshReuse = errors.New("refresh token superseded")
	// ErrPasswordMismatch is returned by ChangePassword when the current
	// password does not verify.
	ErrPasswordMismatch = errors.New("current password is incorrect")
	// ErrResetInvalid is returned by ResetPassword when no reset token is
	// stored for the user or the presented token does not match.
	ErrResetInvalid = errors.New("password reset challenge invalid")
	// ErrAccountDisabled is returned when a non-active account attempts to
	// authenticate.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrForbidden marks authenticated-but-disallowed actions. Guards wrap
	// it so callers can map uniformly to 403.
	ErrForbidden = errors.New("forbidden")
	// ErrLoginRateLimited is returned when login attempts exceed the
	// configured window budget.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrResetRateLimited is returned when password-reset requests exceed
	// the configured window budget.
	ErrResetRateLimited = errors.New("password reset rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on a
	// zero or closed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ValidationError reports one or more violated input rules. All violations
// are collected before returning so the caller can surface the full list.
type ValidationError struct {
	Violations []string
}

// NewValidationError creates a [ValidationError] from the given rule
// violations.
func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// IsValidation reports whether err is (or wraps) a [ValidationError].
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusCode maps an engine error to its HTTP status. The discipline is
// uniform: authentication failures are 401, authorization failures are 403,
// validation 400, missing resources 404, duplicates 409, throttling 429.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrRefreshInvalid),
		errors.Is(err, ErrRefreshReuse),
		errors.Is(err, ErrPasswordMismatch),
		errors.Is(err, ErrResetInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrResetRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
