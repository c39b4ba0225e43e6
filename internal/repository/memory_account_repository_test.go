package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/account-service/internal/domain"
)

func TestMemoryAccountRepository_CreateAndLookup(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	account := &domain.Account{Email: "alice@x.com", FullName: "Alice", Role: domain.RoleUser, Status: domain.AccountStatusActive}
	require.NoError(t, repo.Create(ctx, account))
	require.NotEmpty(t, account.ID)
	assert.False(t, account.CreatedAt.IsZero())

	byEmail, err := repo.GetByEmail(ctx, "ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", byID.FullName)

	// Returned values are copies.
	byID.FullName = "Mallory"
	again, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.FullName)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAccountRepository_EmailUniqueness(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()

	alice := &domain.Account{Email: "alice@x.com"}
	bob := &domain.Account{Email: "bob@x.com"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	assert.ErrorIs(t, repo.Create(ctx, &domain.Account{Email: "Alice@X.com"}), ErrEmailTaken)

	bob.Email = "alice@x.com"
	assert.ErrorIs(t, repo.Update(ctx, bob), ErrEmailTaken)

	// Keeping one's own address is fine.
	alice.FullName = "Alice A."
	require.NoError(t, repo.Update(ctx, alice))

	alice.Email = "alice2@x.com"
	require.NoError(t, repo.Update(ctx, alice))
	require.NoError(t, repo.Create(ctx, &domain.Account{Email: "alice@x.com"}))
}

func TestMemoryAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewMemoryAccountRepository()
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(context.Background(), &domain.Account{Email: "race@x.com"}); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryAccountRepository_ListNewestFirst(t *testing.T) {
	repo := NewMemoryAccountRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &domain.Account{Email: fmt.Sprintf("u%d@x.com", i)}))
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	page, err := repo.List(ctx, AccountFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "u4@x.com", page[0].Email)
	assert.Equal(t, "u3@x.com", page[1].Email)

	last, err := repo.List(ctx, AccountFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "u0@x.com", last[0].Email)

	beyond, err := repo.List(ctx, AccountFilter{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	negative, err := repo.List(ctx, AccountFilter{Limit: 2, Offset: -6})
	require.NoError(t, err)
	require.Len(t, negative, 2)
	assert.Equal(t, "u4@x.com", negative[0].Email)
}

func TestMemoryAccountRepository_TouchLastLogin(t *testing.T) {
	repo := NewMemoryAccountRepository()
	ctx := context.Background()
	account := &domain.Account{Email: "alice@x.com"}
	require.NoError(t, repo.Create(ctx, account))

	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(ctx, account.ID, at))

	got, err := repo.GetByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.True(t, at.Equal(*got.LastLogin))

	assert.ErrorIs(t, repo.TouchLastLogin(ctx, "missing", at), ErrNotFound)
}
