package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"grocery/internal/config"
	"grocery/internal/handler"
	"grocery/internal/infra/cache"
	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// 組み立てに必要な外部資源
type Deps struct {
	DB     *gorm.DB
	Cache  usecase.ProductCache
	Logger *slog.Logger
}

// echoを組み立てる。ルートとミドルウェアはここで全部付ける。
func New(cfg config.Config, deps Deps) *echo.Echo {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NopProductCache{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.FEURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAuthorization,
			middleware.LegacyTokenHeader,
			handler.IdempotencyKeyHeader,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	registerRoutes(e, cfg, deps)
	return e
}

// ctxがキャンセルされるまで待ち受け、その後graceful shutdownする
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
