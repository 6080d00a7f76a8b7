package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"grocery/internal/infra/cache"
	"grocery/internal/infra/db"
	"grocery/internal/server"
	"grocery/internal/usecase"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Migrate the database and start the HTTP server",
		Long: `Migrate the database and start the HTTP API.

The catalog cache is enabled when REDIS_ADDR is set.
SIGINT/SIGTERM trigger a graceful shutdown.

Example:
  grocery serve
  DB_DRIVER=sqlite SQLITE_PATH=./dev.db grocery serve --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg := opts.Config

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := openDB(ctx, opts)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		return WrapExitError(ExitFailure, "failed to migrate database", err)
	}

	productCache, closeCache, err := openCache(ctx, opts)
	if err != nil {
		return err
	}
	defer closeCache()

	e := server.New(cfg, server.Deps{
		DB:     gormDB,
		Cache:  productCache,
		Logger: opts.Logger,
	})

	if err := server.Run(ctx, e, cfg.Addr()); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}

func openDB(ctx context.Context, opts *RootOptions) (*gorm.DB, error) {
	slog.Info("opening database", "driver", opts.Config.DBDriver)
	gormDB, err := db.Connect(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to open database", err)
	}
	if err := db.Ping(ctx, gormDB); err != nil {
		closeDB(gormDB)
		return nil, WrapExitError(ExitFailure, "failed to reach database", err)
	}
	return gormDB, nil
}

func closeDB(gormDB *gorm.DB) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// REDIS_ADDRが空ならキャッシュなし
func openCache(ctx context.Context, opts *RootOptions) (usecase.ProductCache, func(), error) {
	if opts.Config.RedisAddr == "" {
		return cache.NopProductCache{}, func() {}, nil
	}

	client, err := cache.Dial(ctx, opts.Config.RedisAddr)
	if err != nil {
		return nil, nil, WrapExitError(ExitFailure, "failed to connect redis", err)
	}
	slog.Info("catalog cache enabled", "addr", opts.Config.RedisAddr, "ttl", opts.Config.CacheTTL)

	return cache.NewRedisProductCache(client, opts.Config.CacheTTL), func() {
		if err := client.Close(); err != nil {
			slog.Error("error closing redis", "error", err)
		}
	}, nil
}
