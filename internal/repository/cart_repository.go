package repository

import (
	"context"

	"grocery/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 取得（無ければ作成）して行ロック。同じユーザーのカート操作を直列にする。
	LockByUserID(ctx context.Context, userID int64) (model.Cart, error)
	Clear(ctx context.Context, cartID int64) error
}
