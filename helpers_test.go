package authkit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockUserProvider struct {
	mu      sync.Mutex
	users   map[string]UserRecord
	byEmail map[string]string

	createErr error
	updateErr error

	findByEmailCalls     int
	findByIDCalls        int
	createCalls          int
	updatePasswordCalls  int
	updateLastLoginCalls int
}

func newMockUserProvider() *mockUserProvider {
	return &mockUserProvider{
		users:   make(map[string]UserRecord),
		byEmail: make(map[string]string),
	}
}

func (m *mockUserProvider) FindByEmail(ctx context.Context, email string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByEmailCalls++

	id, ok := m.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return m.users[id], nil
}

func (m *mockUserProvider) FindByID(ctx context.Context, id string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findByIDCalls++

	user, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserProvider) Create(ctx context.Context, input CreateUserInput) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if m.createErr != nil {
		return UserRecord{}, m.createErr
	}
	if _, exists := m.byEmail[input.Email]; exists {
		return UserRecord{}, ErrEmailTaken
	}

	user := UserRecord{
		ID:              fmt.Sprintf("u%d", len(m.users)+1),
		Email:           input.Email,
		Name:            input.Name,
		PasswordHash:    input.PasswordHash,
		ProfileType:     input.ProfileType,
		Status:          input.Status,
		Verified:        input.Verified,
		CompletionScore: input.CompletionScore,
		CreatedAt:       time.Now(),
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return user, nil
}

func (m *mockUserProvider) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatePasswordCalls++

	if m.updateErr != nil {
		return m.updateErr
	}
	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.PasswordHash = newHash
	m.users[userID] = user
	return nil
}

func (m *mockUserProvider) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateLastLoginCalls++

	user, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.LastLoginAt = at
	m.users[userID] = user
	return nil
}

// seed inserts a user directly, bypassing Register.
func (m *mockUserProvider) seed(user UserRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.byEmail[user.Email] = user.ID
}

func (m *mockUserProvider) get(userID string) UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID]
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

// testConfig returns DefaultConfig with secrets set and bcrypt dialed down
// so hashing does not dominate test runtime.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = []byte("test-access-secret-0123456789abc")
	cfg.JWT.RefreshSecret = []byte("test-refresh-secret-0123456789ab")
	cfg.Password.Cost = 4
	cfg.Audit.Enabled = false
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, up UserProvider, rdb redis.UniversalClient) *Engine {
	t.Helper()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(up).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return engine
}

// registerTestUser registers a fresh active user and returns the auth result.
func registerTestUser(t *testing.T, engine *Engine, email string) *AuthResult {
	t.Helper()

	result, err := engine.Register(context.Background(), RegisterRequest{
		Email:       email,
		Name:        "Alice Martin",
		Password:    "Tr0ub4dour!x",
		ProfileType: ProfilePME,
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	return result
}
