package handler

import (
	"net/http"
	"strconv"

	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/products。読み取りは公開、変更はadminのみ。
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

type ProductCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	Category    string `json:"category"`
	Image       string `json:"image"`
}

// 部分更新。送られたフィールドだけ変える。
type ProductUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int64  `json:"stock"`
	Category    *string `json:"category"`
	Image       *string `json:"image"`
}

func (h *ProductHandler) RegisterRoutes(e *echo.Echo, a Auth) {
	e.GET("/api/products", h.list)
	e.GET("/api/products/:id", h.detail)

	admin := a.Admin()
	e.POST("/api/products", h.create, admin...)
	e.PUT("/api/products/:id", h.update, admin...)
	e.DELETE("/api/products/:id", h.delete, admin...)
	e.GET("/api/products/:id/adjustments", h.adjustments, admin...)
}

func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), usecase.ListProductsInput{
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	out, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.Create(c.Request().Context(), middleware.IdentityFrom(c), usecase.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *ProductHandler) update(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	var req ProductUpdateRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.Update(c.Request().Context(), middleware.IdentityFrom(c), id, usecase.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		Image:       req.Image,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) delete(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	if err := h.uc.Delete(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Msg: "Product removed"})
}

// 在庫の増減履歴
func (h *ProductHandler) adjustments(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = n
	}

	out, err := h.uc.Adjustments(c.Request().Context(), middleware.IdentityFrom(c), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
