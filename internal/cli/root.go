package cli

import (
	"fmt"
	"log/slog"
	"os"

	"grocery/internal/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile  string
	LogLevel string // 空ならLOG_LEVEL

	// PersistentPreRunEで埋まる
	Config config.Config
	Logger *slog.Logger
}

// NewRootCommand creates the root command for the grocery CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "grocery",
		Short: "Grocery store API",
		Long:  "Catalog, cart, checkout and order API for a small grocery store.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateAdminCommand(opts))

	return cmd
}

// 設定を読み、slogのJSONハンドラをデフォルトにする
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadWithDotenv(o.EnvFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if o.LogLevel != "" {
		level, err := config.ParseLogLevel(o.LogLevel)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("invalid --log-level %q", o.LogLevel), err)
		}
		cfg.LogLevel = level
	}

	o.Config = cfg
	o.Logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(o.Logger)
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
