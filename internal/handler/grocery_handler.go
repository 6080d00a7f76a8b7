package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"grocery/internal/middleware"
	"grocery/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/lists と /api/items。カート・注文とは無関係の買い物メモ。
type GroceryHandler struct {
	uc *usecase.GroceryUsecase
}

func NewGroceryHandler(uc *usecase.GroceryUsecase) *GroceryHandler {
	return &GroceryHandler{uc: uc}
}

type ListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// listは 省略=変更なし / null=リストから外す / 数値=付け替え
type ItemRequest struct {
	Name      *string         `json:"name"`
	Quantity  *int64          `json:"quantity"`
	Category  *string         `json:"category"`
	Purchased *bool           `json:"purchased"`
	List      json.RawMessage `json:"list"`
}

func (r ItemRequest) input() (usecase.ItemInput, bool) {
	in := usecase.ItemInput{
		Name:      r.Name,
		Quantity:  r.Quantity,
		Category:  r.Category,
		Purchased: r.Purchased,
	}

	raw := bytes.TrimSpace(r.List)
	switch {
	case len(raw) == 0:
	case bytes.Equal(raw, []byte("null")):
		in.DetachList = true
	default:
		var id int64
		if err := json.Unmarshal(raw, &id); err != nil || id <= 0 {
			return in, false
		}
		in.ListID = &id
	}
	return in, true
}

func (h *GroceryHandler) RegisterRoutes(e *echo.Echo, a Auth) {
	lists := e.Group("/api/lists")
	lists.Use(a.Required()...)
	lists.GET("", h.lists)
	lists.POST("", h.createList)
	lists.PUT("/:id", h.updateList)
	lists.DELETE("/:id", h.deleteList)

	items := e.Group("/api/items")
	items.Use(a.Required()...)
	items.GET("", h.items)
	items.GET("/:id", h.item)
	items.POST("", h.createItem)
	items.PUT("/:id", h.updateItem)
	items.DELETE("/:id", h.deleteItem)
}

func (h *GroceryHandler) lists(c echo.Context) error {
	out, err := h.uc.Lists(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GroceryHandler) createList(c echo.Context) error {
	var req ListRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.CreateList(c.Request().Context(), middleware.IdentityFrom(c), usecase.ListInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *GroceryHandler) updateList(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	var req ListRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	out, err := h.uc.UpdateList(c.Request().Context(), middleware.IdentityFrom(c), id, usecase.ListInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// アイテムは残る
func (h *GroceryHandler) deleteList(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	if err := h.uc.DeleteList(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Msg: "List removed"})
}

// ?list=<id> で絞り込み
func (h *GroceryHandler) items(c echo.Context) error {
	listID, ok := queryID(c, "list")
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid list"})
	}

	out, err := h.uc.Items(c.Request().Context(), middleware.IdentityFrom(c), listID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GroceryHandler) item(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	out, err := h.uc.GetItem(c.Request().Context(), middleware.IdentityFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GroceryHandler) createItem(c echo.Context) error {
	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	in, ok := req.input()
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid list"})
	}

	out, err := h.uc.CreateItem(c.Request().Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *GroceryHandler) updateItem(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	in, ok := req.input()
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid list"})
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), middleware.IdentityFrom(c), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *GroceryHandler) deleteItem(c echo.Context) error {
	id := paramID(c, "id")
	if id == 0 {
		return invalidID(c)
	}

	if err := h.uc.DeleteItem(c.Request().Context(), middleware.IdentityFrom(c), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Msg: "Item removed"})
}
