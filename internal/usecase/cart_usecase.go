package usecase

import (
	"context"
	"errors"
	"net/http"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// CartUsecaseは/api/cartの業務ロジック。
// 変更系は全てTx内でカート行をロックしてから行うので、同じユーザーの操作は直列になる。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

// 明細1行。商品は現在の内容を詰める。
type CartLine struct {
	ID       int64         `json:"id"`
	Product  model.Product `json:"product"`
	Quantity int64         `json:"quantity"`
	Subtotal int64         `json:"subtotal"`
}

type CartView struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Items  []CartLine `json:"items"`
	Total  int64      `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

// 取得（無ければ作成）
func (u *CartUsecase) Get(ctx context.Context, id model.Identity) (CartView, error) {
	if !id.Authenticated() {
		return CartView{}, unauthorized()
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateByUserID(ctx, id.UserID)
		if err != nil {
			return internalError(ctx, "cart.get", err)
		}
		out, err = buildCartView(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

// カートに追加（同一商品は数量加算）
func (u *CartUsecase) Add(ctx context.Context, id model.Identity, in AddCartInput) (CartView, error) {
	if !id.Authenticated() {
		return CartView{}, unauthorized()
	}
	if in.ProductID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if in.Quantity < 1 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().LockByUserID(ctx, id.UserID)
		if err != nil {
			return internalError(ctx, "cart.add.lock", err)
		}

		p, err := r.Products().FindByID(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("product")
		}
		if err != nil {
			return internalError(ctx, "cart.add.product", err)
		}

		var existingQty int64
		line, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, in.ProductID)
		switch {
		case err == nil:
			existingQty = line.Quantity
		case errors.Is(err, repo.ErrNotFound):
		default:
			return internalError(ctx, "cart.add.line", err)
		}

		if existingQty+in.Quantity > p.Stock {
			return insufficientStock(p.ID, p.Name)
		}

		if err := r.CartItems().UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
			return internalError(ctx, "cart.add.upsert", err)
		}

		out, err = buildCartView(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

// 数量を置き換える。0以下なら明細を消す。
func (u *CartUsecase) SetQuantity(ctx context.Context, id model.Identity, productID int64, qty int64) (CartView, error) {
	if !id.Authenticated() {
		return CartView{}, unauthorized()
	}
	if productID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().LockByUserID(ctx, id.UserID)
		if err != nil {
			return internalError(ctx, "cart.set.lock", err)
		}

		line, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("cart item")
		}
		if err != nil {
			return internalError(ctx, "cart.set.line", err)
		}

		if qty <= 0 {
			if err := r.CartItems().DeleteByID(ctx, line.ID); err != nil {
				return internalError(ctx, "cart.set.delete", err)
			}
		} else {
			p, err := r.Products().FindByID(ctx, productID)
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("product")
			}
			if err != nil {
				return internalError(ctx, "cart.set.product", err)
			}
			if qty > p.Stock {
				return insufficientStock(p.ID, p.Name)
			}
			if err := r.CartItems().UpdateQuantity(ctx, line.ID, qty); err != nil {
				return internalError(ctx, "cart.set.update", err)
			}
		}

		out, err = buildCartView(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

func (u *CartUsecase) Remove(ctx context.Context, id model.Identity, productID int64) (CartView, error) {
	if !id.Authenticated() {
		return CartView{}, unauthorized()
	}
	if productID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var out CartView
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().LockByUserID(ctx, id.UserID)
		if err != nil {
			return internalError(ctx, "cart.remove.lock", err)
		}

		line, err := r.CartItems().FindByCartAndProduct(ctx, cart.ID, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("cart item")
		}
		if err != nil {
			return internalError(ctx, "cart.remove.line", err)
		}
		if err := r.CartItems().DeleteByID(ctx, line.ID); err != nil {
			return internalError(ctx, "cart.remove", err)
		}

		out, err = buildCartView(ctx, r, cart)
		return err
	})
	if err != nil {
		return CartView{}, err
	}
	return out, nil
}

func (u *CartUsecase) Clear(ctx context.Context, id model.Identity) error {
	if !id.Authenticated() {
		return unauthorized()
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().LockByUserID(ctx, id.UserID)
		if err != nil {
			return internalError(ctx, "cart.clear.lock", err)
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return internalError(ctx, "cart.clear", err)
		}
		return nil
	})
}

// 削除済み商品の明細は表示しない
func buildCartView(ctx context.Context, r repo.TxRepos, cart model.Cart) (CartView, error) {
	lines, err := r.CartItems().ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartView{}, internalError(ctx, "cart.view.lines", err)
	}

	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := r.Products().FindByIDs(ctx, ids)
	if err != nil {
		return CartView{}, internalError(ctx, "cart.view.products", err)
	}

	view := CartView{ID: cart.ID, UserID: cart.UserID, Items: make([]CartLine, 0, len(lines))}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		sub := p.Price * l.Quantity
		view.Items = append(view.Items, CartLine{
			ID:       l.ID,
			Product:  p,
			Quantity: l.Quantity,
			Subtotal: sub,
		})
		view.Total += sub
	}
	return view, nil
}
