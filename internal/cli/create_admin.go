package cli

import (
	"fmt"

	"grocery/internal/infra/db"
	infraRepo "grocery/internal/infra/repository"
	"grocery/internal/infra/token"
	"grocery/internal/usecase/auth"
	"grocery/internal/validator"

	"github.com/spf13/cobra"
)

// CreateAdminOptions holds flags for the create-admin command.
type CreateAdminOptions struct {
	*RootOptions
	Email    string
	Username string
	Password string
}

// NewCreateAdminCommand creates the create-admin command.
func NewCreateAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateAdminOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account or promote an existing one",
		Long: `Create an admin account. Registration over HTTP only creates customers.

If a user with the email already exists it is promoted to admin, its password is
replaced and its outstanding tokens are revoked.

Example:
  grocery create-admin --email admin@example.com --username admin --password 's3cret-pass'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateAdmin(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "admin email (required)")
	cmd.Flags().StringVar(&opts.Username, "username", "admin", "display name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "admin password, at least 8 characters (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateAdmin(cmd *cobra.Command, opts *CreateAdminOptions) error {
	cfg := opts.Config

	gormDB, err := openDB(cmd.Context(), opts.RootOptions)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		return WrapExitError(ExitFailure, "failed to migrate database", err)
	}

	userRepo := infraRepo.NewUserGormRepository(gormDB)
	uc := auth.NewRegisterUserUsecase(
		userRepo,
		validator.NewAuthValidator(userRepo),
		auth.NewBcryptPasswordHasher(cfg.BcryptCost),
		token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		auth.SystemClock{},
	)

	user, err := uc.EnsureAdmin(cmd.Context(), auth.RegisterUserInput{
		Username: opts.Username,
		Email:    opts.Email,
		Password: opts.Password,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create admin", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Admin ready: id=%d email=%s\n", user.ID, user.Email)
	return nil
}
