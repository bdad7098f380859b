package authkit

import (
	"strings"
	"testing"
	"time"

	"github.com/pme360/authkit/jwt"
)

func TestBuildRequiresSecrets(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing access secret",
			mutate:  func(c *Config) { c.JWT.AccessSecret = nil },
			wantMsg: "access secret",
		},
		{
			name:    "missing refresh secret",
			mutate:  func(c *Config) { c.JWT.RefreshSecret = nil },
			wantMsg: "refresh secret",
		},
		{
			name: "equal secrets",
			mutate: func(c *Config) {
				c.JWT.AccessSecret = []byte("same-secret-value-0123456789abcd")
				c.JWT.RefreshSecret = []byte("same-secret-value-0123456789abcd")
			},
			wantMsg: "must differ",
		},
		{
			name: "short secret in production mode",
			mutate: func(c *Config) {
				c.Security.ProductionMode = true
				c.JWT.AccessSecret = []byte("short")
			},
			wantMsg: "production",
		},
		{
			name:    "zero access TTL",
			mutate:  func(c *Config) { c.JWT.AccessTTL = 0 },
			wantMsg: "TTL",
		},
		{
			name: "refresh shorter than access",
			mutate: func(c *Config) {
				c.JWT.AccessTTL = time.Hour
				c.JWT.RefreshTTL = time.Minute
			},
			wantMsg: "refresh TTL",
		},
		{
			name:    "tiny reset token",
			mutate:  func(c *Config) { c.PasswordReset.TokenBytes = 4 },
			wantMsg: "reset token",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)

			_, err := New().
				WithConfig(cfg).
				WithRedis(rdb).
				WithUserProvider(newMockUserProvider()).
				Build()
			if err == nil {
				t.Fatal("expected Build to fail")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestBuildRequiresRedisAndProvider(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	if _, err := New().WithConfig(testConfig()).WithUserProvider(newMockUserProvider()).Build(); err == nil {
		t.Fatal("expected Build to fail without redis")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected Build to fail without user provider")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestConfigCloneDetachesSecrets(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	original := jwt.Config{
		AccessSecret:  append([]byte(nil), cfg.JWT.AccessSecret...),
		RefreshSecret: append([]byte(nil), cfg.JWT.RefreshSecret...),
		AccessTTL:     cfg.JWT.AccessTTL,
		RefreshTTL:    cfg.JWT.RefreshTTL,
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
	}

	b := New().WithConfig(cfg).WithRedis(rdb).WithUserProvider(newMockUserProvider())

	// Mutating the caller's slice after WithConfig must not affect the engine.
	copy(cfg.JWT.AccessSecret, []byte("clobbered-secret-0123456789abcde"))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	manager, err := jwt.NewManager(original)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	token, err := manager.IssueAccess("u1", "alice@pme360.fr", string(ProfilePME), true)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}
	if _, ok := engine.ValidateAccess(token); !ok {
		t.Fatal("token signed with the original secret failed validation")
	}
}

func TestDefaultConfigBaseline(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTL != 24*time.Hour {
		t.Fatalf("expected 24h access TTL, got %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("expected 7d refresh TTL, got %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Password.Cost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.Password.Cost)
	}
	if cfg.PasswordReset.ResetTTL != time.Hour {
		t.Fatalf("expected 1h reset TTL, got %v", cfg.PasswordReset.ResetTTL)
	}
	if cfg.Account.InitialCompletionScore != 25 {
		t.Fatalf("expected initial completion score 25, got %d", cfg.Account.InitialCompletionScore)
	}
	if len(cfg.JWT.AccessSecret) != 0 || len(cfg.JWT.RefreshSecret) != 0 {
		t.Fatal("default config must not ship fallback secrets")
	}
}
