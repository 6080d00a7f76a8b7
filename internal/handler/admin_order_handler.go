package handler

import (
	"net/http"

	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, a Auth) {
	e.PUT("/api/orders/:id/status", h.updateStatus, a.Admin()...)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID := paramID(c, "id")
	if orderID == 0 {
		return invalidID(c)
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	// 操作した管理者は監査ログに残る
	out, err := h.uc.UpdateStatus(c.Request().Context(), middleware.IdentityFrom(c), orderID, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
