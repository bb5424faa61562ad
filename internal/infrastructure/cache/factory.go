package cache

import (
	"fmt"

	appmarketplace "github.com/erp/resale/internal/application/marketplace"
	"github.com/erp/resale/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BatchLockerFactory creates the apply lock based on configuration
type BatchLockerFactory struct {
	redisConfig           config.RedisConfig
	marketplaceConfig     config.MarketplaceConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// BatchLockerFactoryOption is a functional option for configuring the factory
type BatchLockerFactoryOption func(*BatchLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) BatchLockerFactoryOption {
	return func(f *BatchLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-process lock
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) BatchLockerFactoryOption {
	return func(f *BatchLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewBatchLockerFactory creates a new factory
func NewBatchLockerFactory(redisCfg config.RedisConfig, marketplaceCfg config.MarketplaceConfig, opts ...BatchLockerFactoryOption) *BatchLockerFactory {
	f := &BatchLockerFactory{
		redisConfig:           redisCfg,
		marketplaceConfig:     marketplaceCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateLocker returns a Redis locker when Redis is enabled and reachable.
// Otherwise it falls back to an in-process locker if allowed. The returned
// client is nil for the in-process locker; callers close it on shutdown.
func (f *BatchLockerFactory) CreateLocker() (appmarketplace.BatchLocker, *redis.Client, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-process apply lock")
		return NewInMemoryBatchLocker(), nil, nil
	}

	client, err := NewRedisClient(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis apply lock", zap.String("addr", f.redisConfig.Addr()))
		return NewRedisBatchLocker(client, f.marketplaceConfig.ApplyLockTTL, f.logger), client, nil
	}

	if !f.allowInMemoryFallback {
		return nil, nil, fmt.Errorf("Redis required for apply lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process apply lock. "+
		"Concurrent applies from other instances are not prevented.",
		zap.Error(err),
	)
	return NewInMemoryBatchLocker(), nil, nil
}

var (
	_ appmarketplace.BatchLocker = (*RedisBatchLocker)(nil)
	_ appmarketplace.BatchLocker = (*InMemoryBatchLocker)(nil)
)
