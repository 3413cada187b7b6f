package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo = "mongo"
	StoreFile  = "file"

	LockLocal = "local"
	LockRedis = "redis"
)

type Config struct {
	Port            string        `env:"PORT,             default=8080"`
	Env             string        `env:"ENV,              default=development"`
	LogLevel        string        `env:"LOG_LEVEL,        default=info"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=24h"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT,  default=15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=10s"`

	Store      StoreConfig
	Mongo      MongoConfig
	Redis      RedisConfig
	Serializer SerializerConfig
	RateLimit  RateLimitConfig
}

type StoreConfig struct {
	Driver string `env:"STORE_DRIVER, default=file"`
	File   string `env:"STORE_FILE,   default=db.json"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=coursesphere"`
}

type RedisConfig struct {
	Enabled bool   `env:"REDIS_ENABLED, default=false"`
	Addr    string `env:"REDIS_ADDR,    default=localhost:6379"`
	DB      int    `env:"REDIS_DB,      default=0"`
}

type SerializerConfig struct {
	Backend string `env:"LOCK_BACKEND,       default=local"`
	Workers int    `env:"SERIALIZER_WORKERS, default=8"`
}

// RateLimitConfig throttles the credential endpoints per client IP. LoginRate
// is in requests per minute.
type RateLimitConfig struct {
	LoginRate  float64 `env:"LOGIN_RATE,  default=5"`
	LoginBurst int     `env:"LOGIN_BURST, default=10"`
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("config: JWT_SECRET must be at least 32 bytes in production")
	}
	switch c.Store.Driver {
	case StoreMongo, StoreFile:
	default:
		return fmt.Errorf("config: STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreFile, c.Store.Driver)
	}
	switch c.Serializer.Backend {
	case LockLocal:
	case LockRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("config: LOCK_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("config: LOCK_BACKEND must be %q or %q, got %q", LockLocal, LockRedis, c.Serializer.Backend)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
