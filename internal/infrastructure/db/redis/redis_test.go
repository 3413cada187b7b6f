package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnreachableServer(t *testing.T) {
	client, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestNewKeyLock_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	l := NewKeyLock(client, 0, 0)

	assert.Equal(t, defaultLockTTL, l.ttl)
	assert.Equal(t, defaultLockRetry, l.retry)
}

func TestKeyLock_FailsWithoutServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	ran := false
	err := NewKeyLock(client, time.Second, 10*time.Millisecond).Do(context.Background(), "course:1", func(context.Context) error {
		ran = true
		return nil
	})

	require.Error(t, err)
	assert.False(t, ran, "mutation must not run without the lock")
}

func TestSessionStore_Key(t *testing.T) {
	s := NewSessionStore(nil)
	assert.Equal(t, "session:abc", s.key("abc"))
}
