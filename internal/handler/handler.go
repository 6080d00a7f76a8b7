package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"grocery/internal/domain/model"
	"grocery/internal/middleware"
	"grocery/internal/repository"
	"grocery/internal/usecase"
	"grocery/internal/usecase/auth"
	"grocery/internal/validator"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// 削除・クリアなどの返り値 { msg: string }
type SuccessResponse struct {
	Msg string `json:"msg"`
}

// 認証つきルートに付けるミドルウェアの材料
type Auth struct {
	Parser middleware.TokenParser
	Users  repository.UserRepository
}

// JWT検証 + token_version確認
func (a Auth) Required() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(a.Parser),
		middleware.TokenVersionGuard(a.Users),
	}
}

// Required + admin限定
func (a Auth) Admin() []echo.MiddlewareFunc {
	return append(a.Required(), middleware.RequireRole(model.RoleAdmin))
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//authパッケージのエラーはここで変換する
	switch {
	case errors.Is(err, validator.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, validator.ErrEmailAlreadyUsed), errors.Is(err, auth.ErrEmailAlreadyExists):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "email already used"})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUserNotFound):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrUserInactive):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "user is inactive"})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error", "err", err, "path", c.Path())
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// ルート未定義・405・bind失敗もErrorResponseの形で返す
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, ErrorResponse{Error: msg})
		return
	}

	_ = writeError(c, err)
}

// パスパラメータのIDを取り出す。不正なら0。
func paramID(c echo.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// クエリの整数。空なら0、不正ならfalse。
func queryInt(c echo.Context, name string) (int, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// クエリのID。空ならnil。
func queryID(c echo.Context, name string) (*int64, bool) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, false
	}
	return &id, true
}

func invalidID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
}

func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
}
