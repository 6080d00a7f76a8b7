package middleware

import (
	"net/http"
	"strings"

	"grocery/internal/infra/token"

	"github.com/labstack/echo/v4"
)

const (
	CtxClaimsKey   = "auth_claims" // token.Claims
	CtxIdentityKey = "identity"    // model.Identity
)

// 旧クライアント用のヘッダ
const LegacyTokenHeader = "x-auth-token"

type TokenParser interface {
	Parse(raw string) (token.Claims, error)
}

// bearerAuth用のJWT検証ミドルウェア。
// Authorization: Bearer を優先し、無ければx-auth-tokenを見る。
func AuthJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawToken, ok := extractToken(c.Request())
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//JWTをパースして検証する
			claims, err := parser.Parse(rawToken)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			c.Set(CtxClaimsKey, claims)
			return next(c)
		}
	}
}

func extractToken(r *http.Request) (string, bool) {
	if authz := r.Header.Get("Authorization"); authz != "" {
		//Bearer形式か確認してtokenを抜く
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", false
		}
		raw := strings.TrimSpace(parts[1])
		return raw, raw != ""
	}

	raw := strings.TrimSpace(r.Header.Get(LegacyTokenHeader))
	return raw, raw != ""
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}
