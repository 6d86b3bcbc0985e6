package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/dheerajsingh9334/mern-Blog/internal/domain/errors"
)

const (
	redisKeyPrefix     = "payment:lock:"
	redisRetryInterval = 25 * time.Millisecond
	redisReleaseWait   = 2 * time.Second
)

// releaseScript deletes the key only while it still holds our token, so an
// expired hold never frees someone else's.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker holds keys across instances with SET NX PX. The TTL bounds
// how long a crashed holder can block a key.
type RedisLocker struct {
	client  *redis.Client
	timeout time.Duration
	ttl     time.Duration
	logger  *zap.Logger
}

func NewRedisLocker(client *redis.Client, timeout, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{
		client:  client,
		timeout: timeout,
		ttl:     ttl,
		logger:  logger,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(redisRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, domainErrors.ErrLockContention
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, domainErrors.ErrLockContention
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), redisReleaseWait)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("Failed to release lock",
					zap.String("key", key),
					zap.Error(err))
			}
		})
	}, nil
}
