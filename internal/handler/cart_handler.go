package handler

import (
	"net/http"

	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	uc *usecase.CartUsecase
}

func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

// 旧クライアントはproductId、新しい方はproduct_idで送ってくる
type CartAddRequest struct {
	ProductID      int64 `json:"productId"`
	ProductIDSnake int64 `json:"product_id"`
	Quantity       int64 `json:"quantity"`
}

func (r CartAddRequest) productID() int64 {
	if r.ProductID != 0 {
		return r.ProductID
	}
	return r.ProductIDSnake
}

type CartUpdateRequest struct {
	Quantity *int64 `json:"quantity"`
}

func (h *CartHandler) RegisterRoutes(e *echo.Echo, a Auth) {
	g := e.Group("/api/cart")
	g.Use(a.Required()...)

	g.GET("", h.get)
	g.POST("", h.add)
	g.DELETE("", h.clear)
	g.PUT("/:productId", h.update)
	g.DELETE("/:productId", h.remove)
}

func (h *CartHandler) get(c echo.Context) error {
	out, err := h.uc.Get(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) add(c echo.Context) error {
	var req CartAddRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.Add(c.Request().Context(), middleware.IdentityFrom(c), usecase.AddCartInput{
		ProductID: req.productID(),
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 数量の置き換え。0以下なら明細を消す。
func (h *CartHandler) update(c echo.Context) error {
	productID := paramID(c, "productId")
	if productID == 0 {
		return invalidID(c)
	}

	var req CartUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "quantity required"})
	}

	out, err := h.uc.SetQuantity(c.Request().Context(), middleware.IdentityFrom(c), productID, *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) remove(c echo.Context) error {
	productID := paramID(c, "productId")
	if productID == 0 {
		return invalidID(c)
	}

	out, err := h.uc.Remove(c.Request().Context(), middleware.IdentityFrom(c), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	if err := h.uc.Clear(c.Request().Context(), middleware.IdentityFrom(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Msg: "Cart cleared"})
}
