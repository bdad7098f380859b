package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/pme360/authkit/internal/audit"
	internalmetrics "github.com/pme360/authkit/internal/metrics"
)

// ProfileType classifies a user's role on the platform. The set is closed;
// values outside it are rejected at registration.
type ProfileType string

const (
	ProfilePME                  ProfileType = "PME"
	ProfileStartup              ProfileType = "STARTUP"
	ProfileExpert               ProfileType = "EXPERT"
	ProfileMentor               ProfileType = "MENTOR"
	ProfileIncubator            ProfileType = "INCUBATOR"
	ProfileInvestor             ProfileType = "INVESTOR"
	ProfileFinancialInstitution ProfileType = "FINANCIAL_INSTITUTION"
	ProfilePublicOrganization   ProfileType = "PUBLIC_ORGANIZATION"
	ProfileTechPartner          ProfileType = "TECH_PARTNER"
	ProfileConsultant           ProfileType = "CONSULTANT"
	ProfileAdmin                ProfileType = "ADMIN"
)

var profileTypes = map[ProfileType]struct{}{
	ProfilePME:                  {},
	ProfileStartup:              {},
	ProfileExpert:               {},
	ProfileMentor:               {},
	ProfileIncubator:            {},
	ProfileInvestor:             {},
	ProfileFinancialInstitution: {},
	ProfilePublicOrganization:   {},
	ProfileTechPartner:          {},
	ProfileConsultant:           {},
	ProfileAdmin:                {},
}

// Valid reports whether p is one of the closed profile-type set.
func (p ProfileType) Valid() bool {
	_, ok := profileTypes[p]
	return ok
}

// AccountStatus represents the lifecycle state of a user account. Only
// active accounts may authenticate.
type AccountStatus string

const (
	StatusActive    AccountStatus = "ACTIVE"
	StatusSuspended AccountStatus = "SUSPENDED"
	StatusDeleted   AccountStatus = "DELETED"
)

// UserRecord is the credential-relevant subset of the user entity, owned by
// the host's persistence layer and returned by [UserProvider].
type UserRecord struct {
	ID              string
	Email           string
	Name            string
	PasswordHash    string
	ProfileType     ProfileType
	Status          AccountStatus
	Verified        bool
	CompletionScore int
	LastLoginAt     time.Time
	CreatedAt       time.Time
}

// Account returns the sanitized projection of the record exposed to API
// responses. It never carries the password hash.
func (u UserRecord) Account() Account {
	return Account{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		ProfileType:     u.ProfileType,
		Verified:        u.Verified,
		CompletionScore: u.CompletionScore,
		LastLoginAt:     u.LastLoginAt,
	}
}

// Account is the sanitized user projection returned by [Engine.Register]
// and [Engine.Login].
type Account struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	Name            string      `json:"name"`
	ProfileType     ProfileType `json:"profileType"`
	Verified        bool        `json:"verified"`
	CompletionScore int         `json:"completionScore"`
	LastLoginAt     time.Time   `json:"lastLoginAt,omitzero"`
}

// CreateUserInput is the input for [UserProvider.Create]. The engine fills
// every field; providers must persist them as given.
type CreateUserInput struct {
	Email           string
	Name            string
	PasswordHash    string
	ProfileType     ProfileType
	Status          AccountStatus
	Verified        bool
	CompletionScore int
}

// UserProvider is the interface the host application implements to connect
// the engine to its user database. Email lookups must be exact matches
// against the lowercase-normalized unique email column; the engine
// normalizes before calling.
//
// FindByEmail and FindByID return [ErrUserNotFound] when no row matches.
// Create returns [ErrEmailTaken] when the unique email constraint fires.
type UserProvider interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByID(ctx context.Context, id string) (UserRecord, error)
	Create(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Identity is the request-scoped projection of a verified access token,
// attached to the request context by the middleware. It exists only for
// the lifetime of one HTTP request and is never persisted.
type Identity struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	ProfileType ProfileType `json:"profileType"`
	Verified    bool        `json:"verified"`
}

// TokenPair carries one access token and its companion refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by [Engine.Register] and [Engine.Login].
type AuthResult struct {
	User   Account   `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Email       string
	Name        string
	Password    string
	ProfileType ProfileType
}

// PasswordResetChallenge is returned by [Engine.RequestPasswordReset].
// Delivery of the token to the user (email) is the host's concern; only
// the token's hash is stored server-side.
type PasswordResetChallenge struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer], one object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot
