package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, NewStore(client, "")
}

func hashOf(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

func TestSaveAndRotateRefresh(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	first := hashOf("token-1")
	second := hashOf("token-2")

	if err := store.SaveRefresh(ctx, "u1", first, time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}
	if !mr.Exists("refresh_token:u1") {
		t.Fatal("expected refresh key to be stored")
	}

	if err := store.RotateRefresh(ctx, "u1", first, second, time.Hour); err != nil {
		t.Fatalf("RotateRefresh failed: %v", err)
	}

	// The displaced hash no longer matches.
	err := store.RotateRefresh(ctx, "u1", first, hashOf("token-3"), time.Hour)
	if !errors.Is(err, ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch, got %v", err)
	}

	// The current hash still rotates.
	if err := store.RotateRefresh(ctx, "u1", second, hashOf("token-3"), time.Hour); err != nil {
		t.Fatalf("rotate with current hash failed: %v", err)
	}
}

func TestRotateRefreshNotFound(t *testing.T) {
	_, store := newTestStore(t)

	err := store.RotateRefresh(context.Background(), "ghost", hashOf("a"), hashOf("b"), time.Hour)
	if !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestRotateRefreshSingleWinner(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	current := hashOf("shared-token")
	if err := store.SaveRefresh(ctx, "u1", current, time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		next := hashOf("next-" + string(rune('a'+i)))
		go func(next [32]byte) {
			defer wg.Done()
			results <- store.RotateRefresh(ctx, "u1", current, next, time.Hour)
		}(next)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
			continue
		}
		if !errors.Is(err, ErrRefreshMismatch) {
			t.Fatalf("unexpected rotate error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one rotation winner, got %d", winners)
	}
}

func TestRefreshExpiresWithTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRefresh(ctx, "u1", hashOf("token"), time.Minute); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	err := store.RotateRefresh(ctx, "u1", hashOf("token"), hashOf("next"), time.Minute)
	if !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound after expiry, got %v", err)
	}
}

func TestRotateRefreshRenewsTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRefresh(ctx, "u1", hashOf("token"), time.Minute); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}
	if err := store.RotateRefresh(ctx, "u1", hashOf("token"), hashOf("next"), time.Hour); err != nil {
		t.Fatalf("RotateRefresh failed: %v", err)
	}

	// The old one-minute TTL would have lapsed; the rotated entry lives on.
	mr.FastForward(30 * time.Minute)
	if err := store.RotateRefresh(ctx, "u1", hashOf("next"), hashOf("later"), time.Hour); err != nil {
		t.Fatalf("rotate after TTL renewal failed: %v", err)
	}
}

func TestDeleteRefreshIsIdempotent(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveRefresh(ctx, "u1", hashOf("token"), time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}
	if err := store.DeleteRefresh(ctx, "u1"); err != nil {
		t.Fatalf("DeleteRefresh failed: %v", err)
	}
	if err := store.DeleteRefresh(ctx, "u1"); err != nil {
		t.Fatalf("second DeleteRefresh failed: %v", err)
	}
	if err := store.DeleteRefresh(ctx, "never-existed"); err != nil {
		t.Fatalf("DeleteRefresh of absent key failed: %v", err)
	}
}

func TestConsumeResetSingleUse(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	challenge := hashOf("reset-token")
	if err := store.SaveReset(ctx, "u1", challenge, time.Hour); err != nil {
		t.Fatalf("SaveReset failed: %v", err)
	}

	if err := store.ConsumeReset(ctx, "u1", challenge); err != nil {
		t.Fatalf("ConsumeReset failed: %v", err)
	}
	err := store.ConsumeReset(ctx, "u1", challenge)
	if !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("expected ErrResetNotFound on replay, got %v", err)
	}
}

func TestConsumeResetMismatchKeepsChallenge(t *testing.T) {
	_, store := newTestStore(t)
	ctx := context.Background()

	challenge := hashOf("reset-token")
	if err := store.SaveReset(ctx, "u1", challenge, time.Hour); err != nil {
		t.Fatalf("SaveReset failed: %v", err)
	}

	err := store.ConsumeReset(ctx, "u1", hashOf("forged"))
	if !errors.Is(err, ErrResetMismatch) {
		t.Fatalf("expected ErrResetMismatch, got %v", err)
	}
	// The stored challenge survives a mismatched attempt.
	if err := store.ConsumeReset(ctx, "u1", challenge); err != nil {
		t.Fatalf("legitimate consume after mismatch failed: %v", err)
	}
}

func TestResetExpiresWithTTL(t *testing.T) {
	mr, store := newTestStore(t)
	ctx := context.Background()

	challenge := hashOf("reset-token")
	if err := store.SaveReset(ctx, "u1", challenge, time.Hour); err != nil {
		t.Fatalf("SaveReset failed: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	err := store.ConsumeReset(ctx, "u1", challenge)
	if !errors.Is(err, ErrResetNotFound) {
		t.Fatalf("expected ErrResetNotFound after expiry, got %v", err)
	}
}

func TestStoreKeysArePrefixedAndIsolated(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(client, "pme360:")
	ctx := context.Background()

	if err := store.SaveRefresh(ctx, "u1", hashOf("token"), time.Hour); err != nil {
		t.Fatalf("SaveRefresh failed: %v", err)
	}
	if err := store.SaveReset(ctx, "u1", hashOf("reset"), time.Hour); err != nil {
		t.Fatalf("SaveReset failed: %v", err)
	}

	if !mr.Exists("pme360:refresh_token:u1") {
		t.Fatal("expected prefixed refresh key")
	}
	if !mr.Exists("pme360:password_reset:u1") {
		t.Fatal("expected prefixed reset key")
	}

	// Another user's state is untouched by u1 operations.
	if err := store.SaveRefresh(ctx, "u2", hashOf("other"), time.Hour); err != nil {
		t.Fatalf("SaveRefresh u2 failed: %v", err)
	}
	if err := store.DeleteRefresh(ctx, "u1"); err != nil {
		t.Fatalf("DeleteRefresh failed: %v", err)
	}
	if !mr.Exists("pme360:refresh_token:u2") {
		t.Fatal("deleting u1 state must not touch u2")
	}
}

func TestPing(t *testing.T) {
	mr, store := newTestStore(t)

	if _, err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	mr.Close()
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
