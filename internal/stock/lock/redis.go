package lock

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-ledger/pkg/cache"
	"github.com/fekuna/omnipos-stock-ledger/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Redis is a lease-based distributed lock. The lease (TTL) must outlive the
// longest transaction; waiters poll every RetryDelay until ctx expires.
type Redis struct {
	client     *cache.RedisClient
	ttl        time.Duration
	retryDelay time.Duration
	logger     logger.ZapLogger
}

func NewRedis(client *cache.RedisClient, ttl, retryDelay time.Duration, log logger.ZapLogger) *Redis {
	if retryDelay <= 0 {
		retryDelay = 50 * time.Millisecond
	}
	return &Redis{client: client, ttl: ttl, retryDelay: retryDelay, logger: log}
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	value := uuid.New().String()

	for {
		ok, err := r.client.AcquireLock(ctx, key, value, r.ttl)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the caller's context is already cancelled.
			rctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := r.client.ReleaseLock(rctx, key, value); err != nil {
				r.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		})
	}, nil
}
