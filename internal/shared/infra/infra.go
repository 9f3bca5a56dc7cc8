package infra

import (
	"context"
	"fmt"
	"log"

	"lending-api/internal/config"
	"lending-api/internal/shared/cache"
	"lending-api/internal/shared/storage"
	"lending-api/internal/shared/storage/dbutil"
	pgdriver "lending-api/internal/shared/storage/driver/postgres"
	sqlitedriver "lending-api/internal/shared/storage/driver/sqlite"
	"lending-api/internal/shared/storage/mongostore"
	"lending-api/internal/shared/storage/repository"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Store 持久化存储（SQLite / PostgreSQL / MongoDB）
	Store storage.PersistentStore

	// Denylist 已吊销令牌黑名单（Redis 或进程内）
	Denylist cache.TokenDenylist
}

// New 按配置初始化全部基础设施
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	denylist, err := NewTokenDenylist(cfg.RedisURL)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &Infrastructure{Store: store, Denylist: denylist}, nil
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.Store != nil {
		if err := i.Store.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Denylist != nil {
		if err := i.Denylist.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// OpenStore 根据配置创建持久化存储
//
// 连接建立后先等待数据库就绪（cfg.DBWaitTimeout），再建表或建索引。
func OpenStore(ctx context.Context, cfg *config.Config) (storage.PersistentStore, error) {
	driver, ok := dbutil.ParseDriverType(cfg.DatabaseDriver)
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DatabaseDriver)
	}

	switch driver {
	case dbutil.DriverMongoDB:
		s, err := mongostore.Open(cfg.DatabaseURL, cfg.DatabaseDBName)
		if err != nil {
			return nil, err
		}
		if err := waitForDB(ctx, s, cfg); err != nil {
			s.Close()
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("mongodb ensure indexes failed: %w", err)
		}
		log.Printf("[Infra] Using MongoDB store (db=%s)", cfg.DatabaseDBName)
		return s, nil

	case dbutil.DriverPostgres:
		db, err := pgdriver.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return openSQLStore(ctx, cfg, repository.NewStore(db, pgdriver.NewDialect()))

	default:
		db, err := sqlitedriver.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return openSQLStore(ctx, cfg, repository.NewStore(db, sqlitedriver.NewDialect()))
	}
}

func openSQLStore(ctx context.Context, cfg *config.Config, s *repository.Store) (storage.PersistentStore, error) {
	if err := waitForDB(ctx, s, cfg); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.Dialect().AutoMigrate(s.DB()); err != nil {
		s.Close()
		return nil, fmt.Errorf("%s auto-migrate failed: %w", s.Dialect().DriverType(), err)
	}
	log.Printf("[Infra] Using %s store", s.Dialect().DriverType())
	return s, nil
}

func waitForDB(ctx context.Context, p dbutil.Pinger, cfg *config.Config) error {
	if cfg.DBWaitTimeout <= 0 {
		return p.PingContext(ctx)
	}
	opts := dbutil.DefaultWaitOptions()
	opts.Timeout = cfg.DBWaitTimeout
	return dbutil.WaitForDB(ctx, p, opts)
}
