package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev-secret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, StoreFile, cfg.Store.Driver)
	assert.Equal(t, "db.json", cfg.Store.File)
	assert.Equal(t, LockLocal, cfg.Serializer.Backend)
	assert.Equal(t, 8, cfg.Serializer.Workers)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.LoginBurst)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":    "dev-secret",
		"STORE_DRIVER":  "mongo",
		"MONGO_DB":      "courses_test",
		"REDIS_ENABLED": "true",
		"LOCK_BACKEND":  "redis",
		"TOKEN_TTL":     "90m",
	}))
	require.NoError(t, err)

	assert.Equal(t, StoreMongo, cfg.Store.Driver)
	assert.Equal(t, "courses_test", cfg.Mongo.Database)
	assert.Equal(t, LockRedis, cfg.Serializer.Backend)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown driver", map[string]string{"JWT_SECRET": "s", "STORE_DRIVER": "sqlite"}},
		{"redis lock without redis", map[string]string{"JWT_SECRET": "s", "LOCK_BACKEND": "redis"}},
		{"short production secret", map[string]string{"JWT_SECRET": "short", "ENV": "production"}},
		{"bad duration", map[string]string{"JWT_SECRET": "s", "TOKEN_TTL": "soon"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(tc.env))
			assert.Error(t, err)
		})
	}
}
