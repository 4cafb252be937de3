package config

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const devJWTSecret = "dev-only-secret"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=24h"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Sessions SessionConfig
	Tasks    TaskConfig
	Clients  ClientConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=primar_console"`
}

type RedisConfig struct {
	Addr            string `env:"REDIS_ADDR,             default=localhost:6379"`
	Password        string `env:"REDIS_PASSWORD"`
	DB              int    `env:"REDIS_DB,               default=0"`
	Namespace       string `env:"REDIS_NAMESPACE,        default=primar"`
	PoolSize        int    `env:"REDIS_POOL_SIZE,        default=10"`
	ConnectAttempts int    `env:"REDIS_CONNECT_ATTEMPTS, default=3"`
}

type SessionConfig struct {
	CacheSize int           `env:"SESSION_CACHE_SIZE, default=1024"`
	CacheTTL  time.Duration `env:"SESSION_CACHE_TTL,  default=30m"`
}

type TaskConfig struct {
	StrictTransitions bool `env:"STRICT_TRANSITIONS, default=false"`
	RecurrenceWorkers int  `env:"RECURRENCE_WORKERS, default=4"`
}

type ClientConfig struct {
	ProvisionRetryDelay time.Duration `env:"PROVISION_RETRY_DELAY, default=2s"`
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("JWT_SECRET is required outside development")
		}
		cfg.JWTSecret = devJWTSecret
	}
	return &cfg, nil
}
