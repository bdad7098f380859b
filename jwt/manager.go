package jwt

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config holds the signing material and token lifetimes. Instances are
// treated as immutable after [NewManager].
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Manager signs and verifies access and refresh tokens. Safe for
// concurrent use.
type Manager struct {
	config Config
}

// AccessClaims is the stateless claim bundle inside an access token.
// Validity derives entirely from signature and expiry.
type AccessClaims struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	ProfileType string `json:"profileType"`
	Verified    bool   `json:"verified"`
	jwt.RegisteredClaims
}

// RefreshClaims is the minimal claim bundle inside a refresh token.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a ready Manager. Both secrets are
// required and must differ.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("both access and refresh secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// IssueAccess signs an access token for the given identity claims,
// expiring after the configured access TTL.
func (m *Manager) IssueAccess(userID, email, profileType string, verified bool) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:           userID,
		Email:            email,
		ProfileType:      profileType,
		Verified:         verified,
		RegisteredClaims: m.registered(now, m.config.AccessTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.AccessSecret)
}

// IssueRefresh signs a refresh token carrying only the user id and email,
// expiring after the configured refresh TTL.
func (m *Manager) IssueRefresh(userID, email string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID:           userID,
		Email:            email,
		RegisteredClaims: m.registered(now, m.config.RefreshTTL),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.config.RefreshSecret)
}

// IssuePair issues an access and a refresh token for the same identity in
// one call.
func (m *Manager) IssuePair(userID, email, profileType string, verified bool) (access, refresh string, err error) {
	access, err = m.IssueAccess(userID, email, profileType, verified)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.IssueRefresh(userID, email)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// VerifyAccess verifies signature, issuer, audience, and expiry against
// the access secret. It reports ok=false on any failure and never returns
// an error to the caller.
func (m *Manager) VerifyAccess(tokenStr string) (*AccessClaims, bool) {
	claims := &AccessClaims{}
	if !m.parse(tokenStr, claims, m.config.AccessSecret) {
		return nil, false
	}
	return claims, true
}

// VerifyRefresh is the refresh-secret counterpart of [Manager.VerifyAccess].
// A token signed with the access secret always fails here, and vice versa.
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, bool) {
	claims := &RefreshClaims{}
	if !m.parse(tokenStr, claims, m.config.RefreshSecret) {
		return nil, false
	}
	return claims, true
}

// RefreshTTL exposes the configured refresh lifetime so stored state can
// expire in lock-step with the signed claim.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

func (m *Manager) registered(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	claims := jwt.RegisteredClaims{
		Issuer:    m.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return claims
}

func (m *Manager) parse(tokenStr string, claims jwt.Claims, secret []byte) bool {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return false
	}
	return token.Valid
}

// ExtractBearer pulls the token out of an Authorization header value. The
// header must be exactly two space-separated parts with the first equal to
// "Bearer"; anything else reports ok=false.
func ExtractBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
