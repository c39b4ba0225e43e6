package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
)

const accountCountKey = "accounts:count"

// countCache is the subset of *redis.Client the cache needs.
type countCache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// cachedAccountRepository serves Count from redis and drops the cached value
// whenever an account is created. Cache failures degrade to the wrapped
// repository; they never fail the request.
type cachedAccountRepository struct {
	AccountRepository
	cache  countCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedAccountRepository decorates next with a redis-backed count cache.
// A nil cache or non-positive ttl returns next unchanged.
func NewCachedAccountRepository(next AccountRepository, cache countCache, ttl time.Duration, logger *zap.Logger) AccountRepository {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedAccountRepository{AccountRepository: next, cache: cache, ttl: ttl, logger: logger}
}

func (r *cachedAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if err := r.AccountRepository.Create(ctx, account); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *cachedAccountRepository) Count(ctx context.Context) (int64, error) {
	cached, err := r.cache.Get(ctx, accountCountKey).Result()
	switch {
	case err == nil:
		if total, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
			return total, nil
		}
		r.logger.Warn("discarding malformed cached account count", zap.String("value", cached))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("account count cache read failed", zap.Error(err))
	}

	total, err := r.AccountRepository.Count(ctx)
	if err != nil {
		return 0, err
	}
	if err := r.cache.Set(ctx, accountCountKey, total, r.ttl).Err(); err != nil {
		r.logger.Warn("account count cache write failed", zap.Error(err))
	}
	return total, nil
}

func (r *cachedAccountRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, accountCountKey).Err(); err != nil {
		r.logger.Warn("account count cache invalidation failed", zap.Error(err))
	}
}
