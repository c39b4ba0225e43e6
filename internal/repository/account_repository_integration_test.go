//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/persistence"
)

// startPostgres runs a throwaway PostgreSQL with the schema migrated.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("accounts"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrator, err := persistence.NewMigrator(dsn, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestAccountRepository_Postgres(t *testing.T) {
	pool := startPostgres(t)
	repo := NewAccountRepository(pool)
	ctx := context.Background()

	alice := &domain.Account{
		Email:        "alice@x.com",
		PasswordHash: "hash",
		FullName:     "Alice",
		Role:         domain.RoleUser,
		Status:       domain.AccountStatusActive,
	}
	require.NoError(t, repo.Create(ctx, alice))
	require.NotEmpty(t, alice.ID)

	t.Run("duplicate email in any case is rejected", func(t *testing.T) {
		dup := &domain.Account{Email: "ALICE@x.com", PasswordHash: "h", FullName: "A", Role: domain.RoleUser, Status: domain.AccountStatusActive}
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrEmailTaken)
	})

	t.Run("lookup by email ignores case", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "Alice@X.com")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update and last login", func(t *testing.T) {
		alice.Status = domain.AccountStatusInactive
		require.NoError(t, repo.Update(ctx, alice))
		require.NoError(t, repo.TouchLastLogin(ctx, alice.ID, time.Now().UTC()))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusInactive, got.Status)
		assert.NotNil(t, got.LastLogin)
	})

	t.Run("count and list", func(t *testing.T) {
		bob := &domain.Account{Email: "bob@x.com", PasswordHash: "h", FullName: "Bob", Role: domain.RoleAdmin, Status: domain.AccountStatusActive}
		require.NoError(t, repo.Create(ctx, bob))

		total, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		accounts, err := repo.List(ctx, AccountFilter{Limit: 10})
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, bob.ID, accounts[0].ID)
	})
}
