package handler

import (
	"net/http"

	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

const IdempotencyKeyHeader = "X-Idempotency-Key"

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, a Auth) {
	g := e.Group("/api/orders")
	g.Use(a.Required()...)

	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

// カートから注文を作る
func (h *OrderHandler) create(c echo.Context) error {
	//二重送信防止キーはヘッダーから受け取る（bodyには入れない）
	idemKey := c.Request().Header.Get(IdempotencyKeyHeader)

	out, err := h.uc.Checkout(c.Request().Context(), middleware.IdentityFrom(c), idemKey)
	if err != nil {
		return writeError(c, err)
	}

	if out.Replayed {
		return c.JSON(http.StatusOK, out.Order)
	}
	return c.JSON(http.StatusCreated, out.Order)
}

func (h *OrderHandler) list(c echo.Context) error {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
	}
	userID, ok := queryID(c, "user_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	out, err := h.uc.List(c.Request().Context(), middleware.IdentityFrom(c), usecase.ListOrdersInput{
		Status: c.QueryParam("status"),
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	out, err := h.uc.Get(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
