// Package lock serializes work per key: one holder per subscription or
// author at a time, bounded by a timeout.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/dheerajsingh9334/mern-Blog/internal/config"
)

// Locker hands out exclusive holds on string keys.
type Locker interface {
	// Acquire blocks until key is free, ctx ends or the timeout passes.
	// The returned release is safe to call more than once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// New builds the locker selected by cfg.Backend.
func New(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) (Locker, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalLocker(cfg.Timeout), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis lock backend requires a redis client")
		}
		return NewRedisLocker(client, cfg.Timeout, cfg.TTL, logger), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
