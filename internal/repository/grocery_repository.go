package repository

import (
	"context"

	"grocery/internal/domain/model"
)

type ListRepository interface {
	// Itemsも詰めて返す
	ListByUserID(ctx context.Context, userID int64) ([]model.List, error)
	FindByID(ctx context.Context, listID int64) (model.List, error)
	Create(ctx context.Context, list model.List) (model.List, error)
	Update(ctx context.Context, list model.List) error
	// 所属していたitemはlist_idをNULLにする
	Delete(ctx context.Context, listID int64) error
}

type ItemListFilter struct {
	UserID int64
	ListID *int64
}

type ItemRepository interface {
	List(ctx context.Context, f ItemListFilter) ([]model.Item, error)
	FindByID(ctx context.Context, itemID int64) (model.Item, error)
	Create(ctx context.Context, item model.Item) (model.Item, error)
	Update(ctx context.Context, item model.Item) error
	Delete(ctx context.Context, itemID int64) error
}
