package redis

import (
	"context"
	"fmt"
	"time"

	"lending-api/internal/shared/cache"
)

// Revoke 写入吊销标记，TTL 与令牌剩余有效期一致
func (s *Store) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf(cache.KeyRevokedToken, jti)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

// IsRevoked 查询吊销标记
func (s *Store) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf(cache.KeyRevokedToken, jti)
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return n > 0, nil
}
