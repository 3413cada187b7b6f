package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/coursesphere/coursesphere-api/internal/api/metrics"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 25 * time.Millisecond
)

// ErrLockHeld is returned when a key stays locked past the caller's deadline.
var ErrLockHeld = errors.New("lock held by another holder")

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// KeyLock serializes mutations across API replicas with a Redis lock per key
// (SET NX PX). It satisfies the same contract as the in-process serializer.
type KeyLock struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewKeyLock returns a KeyLock. ttl bounds how long a crashed holder can block
// a key; zero values fall back to defaults.
func NewKeyLock(client *redis.Client, ttl, retry time.Duration) *KeyLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if retry <= 0 {
		retry = defaultLockRetry
	}
	return &KeyLock{client: client, ttl: ttl, retry: retry}
}

// Do acquires the lock for key, runs fn and releases the lock.
func (l *KeyLock) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		metrics.SerializedDuration.WithLabelValues("redis").Observe(time.Since(start).Seconds())
	}()

	lockKey := "lock:" + key
	owner := uuid.NewString()

	if err := l.acquire(ctx, lockKey, owner); err != nil {
		return err
	}
	defer func() {
		// Release on a fresh context so a cancelled request still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{lockKey}, owner).Err()
	}()

	return fn(ctx)
}

func (l *KeyLock) acquire(ctx context.Context, lockKey, owner string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, lockKey, owner, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("acquire %s: %w", lockKey, err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("acquire %s: %w: %w", lockKey, ErrLockHeld, ctx.Err())
		case <-ticker.C:
		}
	}
}
