package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockHeld means another request is already writing feedback for the token.
var ErrLockHeld = errors.New("submission lock held")

const submitLockPrefix = "feedback:submit:"

// releaseScript deletes the key only if it still carries our owner value.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisSubmissionLock struct {
	client *redis.Client
	ttl    time.Duration
	owner  func() string
	logger *zap.Logger
}

func NewRedisSubmissionLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSubmissionLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisSubmissionLock{
		client: client,
		ttl:    ttl,
		owner:  uuid.NewString,
		logger: logger.Named("submit-lock"),
	}
}

// Acquire takes the per-token lock. The returned release func is safe to call
// once the write finished, whatever its outcome.
func (l *RedisSubmissionLock) Acquire(ctx context.Context, token string) (func(), error) {
	key := submitLockPrefix + token
	owner := l.owner()

	ok, err := l.client.SetNX(ctx, key, owner, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		// A failed release leaves the key until its TTL expires.
		if err := releaseScript.Run(ctx, l.client, []string{key}, owner).Err(); err != nil {
			l.logger.Warn("submission lock release failed",
				zap.String("key", key),
				zap.Duration("expires_in", l.ttl),
				zap.Error(err),
			)
		}
	}, nil
}

// NoopSubmissionLock is used when Redis is not configured; the conditional
// write in ApplyFeedbackOutcome still keeps submissions at-most-once.
type NoopSubmissionLock struct{}

func (NoopSubmissionLock) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
