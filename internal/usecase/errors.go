package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// handlerへ返すエラー。Statusをそのままレスポンスに使う。
type HTTPError struct {
	Status  int
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

var (
	// カートが空
	ErrEmptyCart = errors.New("cart is empty")
	// 確定中に在庫が他の注文に取られた
	ErrStockConflict = errors.New("stock changed during checkout")
	// 遷移表にないステータス変更
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// 在庫不足。どの商品かを持つ。
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

func domainError(status int, err error) error {
	return &HTTPError{Status: status, Message: err.Error(), Err: err}
}

func insufficientStock(p int64, name string) error {
	return domainError(http.StatusBadRequest, &InsufficientStockError{ProductID: p, ProductName: name})
}

// 想定外の失敗はログに残して500にまとめる
func internalError(ctx context.Context, op string, err error) error {
	slog.ErrorContext(ctx, "usecase failed", "op", op, "err", err)
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Err: err}
}

func forbidden() error {
	return NewHTTPError(http.StatusForbidden, "forbidden")
}

func unauthorized() error {
	return NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

func notFound(what string) error {
	return NewHTTPError(http.StatusNotFound, what+" not found")
}

// 監査ログ用
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
