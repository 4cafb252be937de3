package redis

import (
	"context"
	"fmt"
	"time"
)

// TokenBlacklist stores revoked token ids until their natural expiry.
type TokenBlacklist struct {
	store *Store
}

func NewTokenBlacklist(store *Store) *TokenBlacklist {
	return &TokenBlacklist{store: store}
}

func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.store.Client().Set(ctx, b.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.store.Client().Exists(ctx, b.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("blacklist lookup: %w", err)
	}
	return n > 0, nil
}

func (b *TokenBlacklist) key(jti string) string {
	return b.store.Key("token", "revoked", jti)
}
