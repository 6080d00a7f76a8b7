package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// 商品の読み取りキャッシュ。失敗してもDBにフォールバックする。
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (model.Product, bool, error)
	SetProduct(ctx context.Context, p model.Product) error
	GetList(ctx context.Context, query string) ([]model.Product, bool, error)
	SetList(ctx context.Context, query string, products []model.Product) error
	Invalidate(ctx context.Context, ids ...int64) error
}

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	cache    ProductCache
}

// DI
func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, cache ProductCache) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		cache:    cache,
	}
}

// GET /api/productsの入力
type ListProductsInput struct {
	Q        string
	Category string
	Sort     string
}

func (in ListProductsInput) cacheKey() string {
	return fmt.Sprintf("q=%s&category=%s&sort=%s", strings.ToLower(in.Q), in.Category, in.Sort)
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) ([]model.Product, error) {
	in.Q = strings.TrimSpace(in.Q)
	in.Category = strings.TrimSpace(in.Category)
	if len(in.Q) > 100 {
		return nil, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return nil, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	key := in.cacheKey()
	if cached, ok, err := u.cache.GetList(ctx, key); err != nil {
		slog.WarnContext(ctx, "product cache read failed", "err", err)
	} else if ok {
		return cached, nil
	}

	items, err := u.products.List(ctx, repo.ProductListQuery{
		Q:        in.Q,
		Category: in.Category,
		Sort:     in.Sort,
	})
	if err != nil {
		return nil, internalError(ctx, "product.list", err)
	}
	if items == nil {
		items = []model.Product{}
	}

	if err := u.cache.SetList(ctx, key, items); err != nil {
		slog.WarnContext(ctx, "product cache write failed", "err", err)
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if cached, ok, err := u.cache.GetProduct(ctx, productID); err != nil {
		slog.WarnContext(ctx, "product cache read failed", "err", err, "product_id", productID)
	} else if ok {
		return cached, nil
	}

	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, notFound("product")
	}
	if err != nil {
		return model.Product{}, internalError(ctx, "product.get", err)
	}

	if err := u.cache.SetProduct(ctx, p); err != nil {
		slog.WarnContext(ctx, "product cache write failed", "err", err, "product_id", productID)
	}
	return p, nil
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       int64
	Stock       int64
	Category    string
	Image       string
}

func (in CreateProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (u *ProductUsecase) Create(ctx context.Context, actor model.Identity, in CreateProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, forbidden()
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price,
			Stock:       in.Stock,
			Category:    strings.TrimSpace(in.Category),
			Image:       in.Image,
		})
		if err != nil {
			return internalError(ctx, "product.create", err)
		}

		if p.Stock > 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   p.ID,
				ActorUserID: actor.UserID,
				Delta:       p.Stock,
				Reason:      "initial stock",
			}); err != nil {
				return internalError(ctx, "product.create.adjustment", err)
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			BeforeJSON:   "{}",
			AfterJSON:    toJSON(p),
		}); err != nil {
			return internalError(ctx, "product.create.audit", err)
		}

		created = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.invalidate(ctx)
	return created, nil
}

// PUT /api/products/:id。nilのフィールドは変更しない。
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *int64
	Stock       *int64
	Category    *string
	Image       *string
}

func (in UpdateProductInput) apply(p model.Product) model.Product {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	return p
}

func (u *ProductUsecase) Update(ctx context.Context, actor model.Identity, productID int64, in UpdateProductInput) (model.Product, error) {
	if !actor.IsAdmin() {
		return model.Product{}, forbidden()
	}
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("product")
		}
		if err != nil {
			return internalError(ctx, "product.update.find", err)
		}

		after := in.apply(before)
		if err := (CreateProductInput{Name: after.Name, Price: after.Price, Stock: after.Stock}).validate(); err != nil {
			return err
		}

		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("product")
			}
			return internalError(ctx, "product.update", err)
		}

		//在庫が変わったら履歴と監査ログを別に残す
		if delta := after.Stock - before.Stock; delta != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   productID,
				ActorUserID: actor.UserID,
				Delta:       delta,
				Reason:      "admin update",
			}); err != nil {
				return internalError(ctx, "product.update.adjustment", err)
			}
			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actor.UserID,
				Action:       model.AuditActionUpdateStock,
				ResourceType: model.AuditResourceProduct,
				ResourceID:   productID,
				BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, before.Stock),
				AfterJSON:    fmt.Sprintf(`{"stock":%d}`, after.Stock),
			}); err != nil {
				return internalError(ctx, "product.update.audit", err)
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
		}); err != nil {
			return internalError(ctx, "product.update.audit", err)
		}

		updated, err = r.Products().FindByID(ctx, productID)
		if err != nil {
			return internalError(ctx, "product.update.reload", err)
		}
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.invalidate(ctx, productID)
	return updated, nil
}

func (u *ProductUsecase) Delete(ctx context.Context, actor model.Identity, productID int64) error {
	if !actor.IsAdmin() {
		return forbidden()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("product")
		}
		if err != nil {
			return internalError(ctx, "product.delete.find", err)
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("product")
			}
			return internalError(ctx, "product.delete", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    "{}",
		}); err != nil {
			return internalError(ctx, "product.delete.audit", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.invalidate(ctx, productID)
	return nil
}

// 在庫の移動履歴（新しい順）
func (u *ProductUsecase) Adjustments(ctx context.Context, actor model.Identity, productID int64, limit int) ([]model.InventoryAdjustment, error) {
	if !actor.IsAdmin() {
		return nil, forbidden()
	}
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var out []model.InventoryAdjustment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("product")
			}
			return internalError(ctx, "product.adjustments.find", err)
		}
		adjs, err := r.Inventory().ListAdjustments(ctx, productID, limit)
		if err != nil {
			return internalError(ctx, "product.adjustments", err)
		}
		out = adjs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.InventoryAdjustment{}
	}
	return out, nil
}

func (u *ProductUsecase) invalidate(ctx context.Context, ids ...int64) {
	if err := u.cache.Invalidate(ctx, ids...); err != nil {
		slog.WarnContext(ctx, "product cache invalidate failed", "err", err)
	}
}
