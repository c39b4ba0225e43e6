package repository

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
)

type fakeCountCache struct {
	values  map[string]string
	getErr  error
	setTTLs []time.Duration
	deletes int
}

func newFakeCountCache() *fakeCountCache {
	return &fakeCountCache{values: make(map[string]string)}
}

func (f *fakeCountCache) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	val, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (f *fakeCountCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case int64:
		f.values[key] = strconv.FormatInt(v, 10)
	case string:
		f.values[key] = v
	}
	f.setTTLs = append(f.setTTLs, expiration)
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeCountCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.values, k)
	}
	f.deletes++
	return redis.NewIntResult(int64(len(keys)), nil)
}

func seedAccount(t *testing.T, repo AccountRepository, email string) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.Account{
		Email:    email,
		FullName: "Someone",
		Role:     domain.RoleUser,
		Status:   domain.AccountStatusActive,
	}))
}

func TestCachedAccountRepository_CountUsesCache(t *testing.T) {
	mem := NewMemoryAccountRepository()
	cache := newFakeCountCache()
	repo := NewCachedAccountRepository(mem, cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	seedAccount(t, mem, "a@x.com")

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "1", cache.values[accountCountKey])
	assert.Equal(t, []time.Duration{time.Minute}, cache.setTTLs)

	// Written behind the decorator's back; the cached value still wins.
	seedAccount(t, mem, "b@x.com")
	total, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCachedAccountRepository_CreateInvalidates(t *testing.T) {
	cache := newFakeCountCache()
	repo := NewCachedAccountRepository(NewMemoryAccountRepository(), cache, time.Minute, zap.NewNop())
	ctx := context.Background()

	seedAccount(t, repo, "a@x.com")
	_, err := repo.Count(ctx)
	require.NoError(t, err)

	seedAccount(t, repo, "b@x.com")
	assert.Equal(t, 2, cache.deletes)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestCachedAccountRepository_FallsBackOnCacheErrors(t *testing.T) {
	mem := NewMemoryAccountRepository()
	seedAccount(t, mem, "a@x.com")

	t.Run("read failure", func(t *testing.T) {
		cache := newFakeCountCache()
		cache.getErr = errors.New("connection refused")
		repo := NewCachedAccountRepository(mem, cache, time.Minute, zap.NewNop())

		total, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("malformed value", func(t *testing.T) {
		cache := newFakeCountCache()
		cache.values[accountCountKey] = "not-a-number"
		repo := NewCachedAccountRepository(mem, cache, time.Minute, zap.NewNop())

		total, err := repo.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "1", cache.values[accountCountKey])
	})
}

func TestNewCachedAccountRepository_Disabled(t *testing.T) {
	mem := NewMemoryAccountRepository()

	assert.Same(t, mem, NewCachedAccountRepository(mem, nil, time.Minute, zap.NewNop()))
	assert.Same(t, mem, NewCachedAccountRepository(mem, newFakeCountCache(), 0, zap.NewNop()))
}
