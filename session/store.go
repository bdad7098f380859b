package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRefreshNotFound is returned when no refresh token is stored for the
// user (logged out, expired, or never issued).
var ErrRefreshNotFound = errors.New("refresh token not found")

// ErrRefreshMismatch is returned when a refresh token is presented that no
// longer matches the stored one: it was superseded by a later issuance.
var ErrRefreshMismatch = errors.New("refresh token mismatch")

// ErrResetNotFound is returned when no reset challenge is stored for the
// user.
var ErrResetNotFound = errors.New("reset challenge not found")

// ErrResetMismatch is returned when the presented reset token does not
// match the stored challenge.
var ErrResetMismatch = errors.New("reset challenge mismatch")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// Compare-and-swap over the single stored refresh hash. Runs atomically
// inside Redis, which is what guarantees one winner under concurrent
// refresh calls with the same token.
const rotateRefreshScript = `
local stored = redis.call("GET", KEYS[1])
if not stored then
  return 0
end
if stored ~= ARGV[1] then
  return 1
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 2
`

var rotateRefreshLua = redis.NewScript(rotateRefreshScript)

// Store persists per-user refresh and reset state in Redis. Safe for
// concurrent use; keys for different users never interact.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store backed by the given Redis client. prefix
// namespaces all keys and may be empty.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) refreshKey(userID string) string {
	return s.prefix + "refresh_token:" + userID
}

func (s *Store) resetKey(userID string) string {
	return s.prefix + "password_reset:" + userID
}

// SaveRefresh stores the refresh-token hash for a user, displacing any
// prior one. The TTL must equal the signed refresh expiry so the store and
// the signature lapse together.
func (s *Store) SaveRefresh(ctx context.Context, userID string, tokenHash [32]byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.refreshKey(userID), tokenHash[:], ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RotateRefresh atomically replaces the stored refresh hash with nextHash,
// but only when the stored value equals providedHash. Returns
// [ErrRefreshNotFound] when nothing is stored and [ErrRefreshMismatch]
// when the stored hash differs (the presented token was superseded).
func (s *Store) RotateRefresh(ctx context.Context, userID string, providedHash, nextHash [32]byte, ttl time.Duration) error {
	result, err := rotateRefreshLua.Run(
		ctx,
		s.redis,
		[]string{s.refreshKey(userID)},
		providedHash[:],
		nextHash[:],
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	code, ok := result.(int64)
	if !ok {
		return fmt.Errorf("%w: invalid rotate script response", ErrRedisUnavailable)
	}

	switch code {
	case rotateStatusNotFound:
		return ErrRefreshNotFound
	case rotateStatusMismatch:
		return ErrRefreshMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, code)
	}
}

// DeleteRefresh removes the stored refresh hash. Deleting an absent key is
// not an error, which makes logout idempotent.
func (s *Store) DeleteRefresh(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// SaveReset stores the reset-challenge hash for a user with the given TTL,
// displacing any outstanding challenge.
func (s *Store) SaveReset(ctx context.Context, userID string, tokenHash [32]byte, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.resetKey(userID), tokenHash[:], ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ConsumeReset deletes the stored reset challenge if and only if it
// matches providedHash, making challenges single-use. The compare happens
// under WATCH so a concurrent consume cannot double-spend the challenge.
func (s *Store) ConsumeReset(ctx context.Context, userID string, providedHash [32]byte) error {
	const maxRetries = 4
	key := s.resetKey(userID)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrResetNotFound
				}
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}

			if subtle.ConstantTimeCompare(data, providedHash[:]) != 1 {
				return ErrResetMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			if err != nil {
				return err
			}
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrResetNotFound) && !errors.Is(err, ErrResetMismatch) &&
			!errors.Is(err, ErrRedisUnavailable) {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return err
	}

	return fmt.Errorf("%w: reset consume retries exhausted", ErrRedisUnavailable)
}

// DeleteReset removes any stored reset challenge. Idempotent.
func (s *Store) DeleteReset(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.resetKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
