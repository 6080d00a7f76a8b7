package middleware

import (
	"net/http"

	"grocery/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextのIdentityがroleを満たすか確認する。adminは全roleを満たす。
func RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := IdentityFrom(c)
			if !id.Authenticated() {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			if !id.HasRole(role) {
				return c.JSON(http.StatusForbidden, errorJSON(string(role)+" only"))
			}
			return next(c)
		}
	}
}
