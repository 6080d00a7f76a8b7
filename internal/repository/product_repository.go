package repository

import (
	"context"

	"grocery/internal/domain/model"
)

// 一覧検索
type ProductListQuery struct {
	Q        string
	Category string
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// 行ロックして取得（Tx内で使う）
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	// 見つかったものだけ返す
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
