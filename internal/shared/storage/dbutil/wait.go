package dbutil

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Pinger 可探活的连接（*sql.DB、mongo 存储等）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc 适配普通函数为 Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// WaitOptions 等待数据库就绪的参数
type WaitOptions struct {
	Timeout  time.Duration // 总等待时长
	Interval time.Duration // 重试间隔
}

// DefaultWaitOptions 默认 30 秒超时，每秒重试一次
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{Timeout: 30 * time.Second, Interval: time.Second}
}

// WaitForDB 循环探活直到数据库可用或超时
func WaitForDB(ctx context.Context, p Pinger, opts WaitOptions) error {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	log.Println("[dbutil] Waiting for database...")
	attempt := 0
	for {
		attempt++
		err := p.PingContext(ctx)
		if err == nil {
			log.Printf("[dbutil] Database available (attempt %d)", attempt)
			return nil
		}
		log.Printf("[dbutil] Database unavailable, waiting %s... (%v)", opts.Interval, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("database not available after %d attempts: %w", attempt, err)
		case <-time.After(opts.Interval):
		}
	}
}
