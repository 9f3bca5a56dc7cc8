// Package infra 基础设施初始化
//
// 根据配置组装存储层与缓存层的具体实现，main 只依赖接口。
package infra

import (
	"log"

	"lending-api/internal/shared/cache"
	cacheredis "lending-api/internal/shared/cache/redis"
)

// NewTokenDenylist 创建令牌黑名单
//
// redisURL 为空时使用进程内实现（仅适用于单实例部署）。
func NewTokenDenylist(redisURL string) (cache.TokenDenylist, error) {
	if redisURL == "" {
		log.Println("[Infra] Redis not configured, using in-memory token denylist")
		return cache.NewMemoryDenylist(), nil
	}
	return cacheredis.NewStoreFromURL(redisURL)
}
