// Package redis holds the console's redis-backed adapters: the token
// blacklist, the recurrence guard and the auth event relay.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultNamespace = "primar"
	defaultTimeout   = 5 * time.Second
	defaultAttempts  = 3
	defaultBackoff   = 500 * time.Millisecond
	defaultPoolSize  = 10
	keySeparator     = ":"
)

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Namespace prefixes every key and channel so several deployments can
	// share one redis.
	Namespace string
	PoolSize  int
	// Timeout bounds each connection attempt's ping.
	Timeout time.Duration
	// Attempts is how many pings Connect tries before giving up; Backoff
	// doubles between them.
	Attempts int
	Backoff  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Namespace == "" {
		c.Namespace = defaultNamespace
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Attempts <= 0 {
		c.Attempts = defaultAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	return c
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Addr,
		Password:     c.Password,
		DB:           c.DB,
		PoolSize:     c.PoolSize,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
	}
}

// Store is a connected client scoped to one key namespace.
type Store struct {
	client    *redis.Client
	namespace string
}

// Connect opens the client and pings it until it answers, cfg.Attempts times
// at most. The store is only returned once redis is reachable.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(cfg.options())

	backoff := cfg.Backoff
	var err error
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return &Store{client: client, namespace: cfg.Namespace}, nil
		}
		if attempt >= cfg.Attempts {
			break
		}
		if werr := wait(ctx, backoff); werr != nil {
			err = werr
			break
		}
		backoff *= 2
	}

	_ = client.Close()
	return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Key joins parts under the store's namespace, e.g. primar:token:revoked:<jti>.
func (s *Store) Key(parts ...string) string {
	return namespacedKey(s.namespace, parts...)
}

func namespacedKey(namespace string, parts ...string) string {
	return namespace + keySeparator + strings.Join(parts, keySeparator)
}

// Client exposes the underlying client to the adapters in this package.
func (s *Store) Client() *redis.Client {
	return s.client
}

// Ping reports whether redis answers. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}
