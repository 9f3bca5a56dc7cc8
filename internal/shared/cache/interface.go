// Package cache 缓存层抽象接口
//
// 提供临时状态的存取能力：当前仅用于已吊销令牌的黑名单。
// 配置了 Redis 时由 cache/redis 实现，否则使用进程内 MemoryDenylist。
package cache

import (
	"context"
	"time"
)

// Key 前缀
const (
	// KeyRevokedToken 已吊销令牌，%s 为 JWT ID
	KeyRevokedToken = "lending:auth:revoked:%s"
)

// TokenDenylist 已吊销令牌黑名单
//
// 条目在令牌自身过期后即可清除，无需永久保存。
type TokenDenylist interface {
	// Revoke 吊销 jti，直到 expiresAt
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked 查询 jti 是否已吊销
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Close() error
}
