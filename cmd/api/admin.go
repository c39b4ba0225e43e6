package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/spec-kit/account-service/internal/persistence"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

type createAdminOptions struct {
	email    string
	password string
	fullName string
}

// NewCreateAdminCmd creates the create-admin subcommand. No HTTP route grants
// the admin role, so this is how the first admin is made.
func NewCreateAdminCmd() *cobra.Command {
	opts := &createAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateAdmin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "admin email address")
	cmd.Flags().StringVar(&opts.password, "password", "", "admin password")
	cmd.Flags().StringVar(&opts.fullName, "name", "", "admin full name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, opts *createAdminOptions) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		return oops.Code("CONFIG_INVALID").Errorf("POSTGRES_DSN environment variable is required")
	}

	ctx := cmd.Context()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	defer pg.Close()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		Accounts: repository.NewAccountRepository(pg.PoolHandle()),
		Logger:   logger,
	})

	admin, err := authService.ProvisionAdmin(ctx, service.SignupInput{
		Email:    opts.email,
		Password: opts.password,
		FullName: opts.fullName,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Admin %s created with id %s\n", admin.Email, admin.ID)
	return nil
}
