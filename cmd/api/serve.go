package main

import (
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/account-service/internal/api/http"
	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer pg.Close()

	accounts, err := accountRepository(cfg, pg, logger)
	if err != nil {
		return err
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	if redis.Enabled() {
		accounts = repository.NewCachedAccountRepository(accounts, redis.Client, cfg.Redis.CountCacheTTL(), logger)
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts: accounts,
		Logger:   logger,
	})

	app := httptransport.NewApp(cfg.App, httptransport.AppDependencies{
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Auth:     authService,
		Accounts: service.NewAccountService(accounts, logger),
		Dependencies: map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		},
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("base_path", cfg.App.BasePath))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return oops.Code("HTTP_LISTEN_FAILED").Wrap(err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	return nil
}

// accountRepository picks the store: Postgres when configured, process memory
// for local development only.
func accountRepository(cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.AccountRepository, error) {
	if !pg.Enabled() {
		if !cfg.App.IsDevelopment() {
			return nil, oops.Code("CONFIG_INVALID").Wrap(errors.New("POSTGRES_DSN is required outside development"))
		}
		logger.Warn("using in-memory account store; data is lost on restart")
		return repository.NewMemoryAccountRepository(), nil
	}

	if cfg.Postgres.RunMigrations {
		if err := migrateUp(cfg.Postgres.DSN, logger); err != nil {
			return nil, err
		}
	}
	return repository.NewAccountRepository(pg.PoolHandle()), nil
}

func migrateUp(dsn string, logger *zap.Logger) (err error) {
	migrator, err := persistence.NewMigrator(dsn, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, migrator.Close())
	}()
	return migrator.Up()
}

// Compile-time check that the persistence handles satisfy the readiness probe.
var (
	_ handlers.Dependency = (*persistence.Postgres)(nil)
	_ handlers.Dependency = (*persistence.Redis)(nil)
)
