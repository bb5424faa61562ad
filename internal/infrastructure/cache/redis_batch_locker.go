package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/resale/internal/domain/shared"
	"github.com/erp/resale/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockPrefix = "marketplace:apply:"

// RedisBatchLocker serializes apply runs of a batch across processes
// with a Redis lock that expires after ttl
type RedisBatchLocker struct {
	locker    *redislock.Client
	ttl       time.Duration
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisBatchLocker creates a locker on an existing Redis client
func NewRedisBatchLocker(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisBatchLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBatchLocker{
		locker:    redislock.New(client),
		ttl:       ttl,
		keyPrefix: defaultLockPrefix,
		logger:    logger,
	}
}

// Lock obtains the apply lock of a batch without waiting.
// A lock held elsewhere fails with shared.ErrApplyInProgress.
func (l *RedisBatchLocker) Lock(ctx context.Context, batchID uuid.UUID) (func(), error) {
	key := l.keyPrefix + batchID.String()

	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrApplyInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain apply lock: %w", err)
	}

	unlock := func() {
		// The request context may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release apply lock",
				zap.String("batch_id", batchID.String()),
				zap.Error(err),
			)
		}
	}
	return unlock, nil
}
