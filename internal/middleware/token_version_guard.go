package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"grocery/internal/domain/model"
	"grocery/internal/infra/token"
	"grocery/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionの一致するか確認し、Identityを作る。
// roleはDBの値を使うので、降格はすぐ反映される。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(CtxClaimsKey).(token.Claims)
			if !ok || claims.UserID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//DBから最新のuserを取得する
			ctx := c.Request().Context()
			user, err := userRepo.FindByID(ctx, claims.UserID)
			if err != nil || user == nil {
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					slog.ErrorContext(ctx, "token guard user lookup failed", "err", err, "user_id", claims.UserID)
				}
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//token_version が一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != claims.TokenVersion || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxIdentityKey, model.Identity{UserID: user.ID, Role: user.Role})
			return next(c)
		}
	}
}

// contextに入っているIdentity。無ければゼロ値（未認証）。
func IdentityFrom(c echo.Context) model.Identity {
	id, _ := c.Get(CtxIdentityKey).(model.Identity)
	return id
}
