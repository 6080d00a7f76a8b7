package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

var errIdempotencyRace = errors.New("idempotency key inserted concurrently")

type OrderUsecase struct {
	tx          repo.TransactionManager
	orders      repo.OrderRepository
	cache       ProductCache
	maxAttempts int
}

func NewOrderUsecase(tx repo.TransactionManager, orders repo.OrderRepository, cache ProductCache, maxAttempts int) *OrderUsecase {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OrderUsecase{
		tx:          tx,
		orders:      orders,
		cache:       cache,
		maxAttempts: maxAttempts,
	}
}

type CheckoutResult struct {
	Order model.Order
	// 同じidempotency keyで既に作られていた
	Replayed bool
}

// カートを注文に変える。
// 在庫確認・注文作成・在庫減算・カートクリアは1つのTxで行い、
// 条件付き減算が負けたらTxごと捨てて最初からやり直す。
func (u *OrderUsecase) Checkout(ctx context.Context, id model.Identity, idempotencyKey string) (CheckoutResult, error) {
	if !id.Authenticated() {
		return CheckoutResult{}, unauthorized()
	}
	key := strings.TrimSpace(idempotencyKey)
	if len(key) > 255 {
		return CheckoutResult{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}

	for attempt := 1; ; attempt++ {
		res, touched, err := u.checkoutOnce(ctx, id.UserID, key)
		switch {
		case err == nil:
			if !res.Replayed {
				if err := u.cache.Invalidate(ctx, touched...); err != nil {
					slog.WarnContext(ctx, "product cache invalidate failed", "err", err)
				}
			}
			return res, nil

		case errors.Is(err, ErrStockConflict):
			if attempt < u.maxAttempts {
				slog.InfoContext(ctx, "checkout stock conflict, retrying", "user_id", id.UserID, "attempt", attempt)
				continue
			}
			return CheckoutResult{}, domainError(http.StatusConflict, ErrStockConflict)

		case errors.Is(err, errIdempotencyRace):
			//同じキーの注文が先にcommitされた
			o, found, ferr := u.orders.FindByIdempotencyKey(ctx, id.UserID, key)
			if ferr != nil {
				return CheckoutResult{}, internalError(ctx, "order.checkout.idempotency", ferr)
			}
			if !found {
				return CheckoutResult{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			return CheckoutResult{Order: o, Replayed: true}, nil

		default:
			return CheckoutResult{}, err
		}
	}
}

func (u *OrderUsecase) checkoutOnce(ctx context.Context, userID int64, key string) (CheckoutResult, []int64, error) {
	var out CheckoutResult
	var touched []int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if key != "" {
			existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err != nil {
				return internalError(ctx, "order.checkout.idempotency", err)
			}
			if found {
				out = CheckoutResult{Order: existing, Replayed: true}
				return nil
			}
		}

		cart, err := r.Carts().LockByUserID(ctx, userID)
		if err != nil {
			return internalError(ctx, "order.checkout.cart", err)
		}

		lines, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return internalError(ctx, "order.checkout.lines", err)
		}
		if len(lines) == 0 {
			return domainError(http.StatusBadRequest, ErrEmptyCart)
		}

		//商品ID順に更新して行ロックの順番を揃える
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := r.Products().FindByIDs(ctx, ids)
		if err != nil {
			return internalError(ctx, "order.checkout.products", err)
		}

		//今の価格と在庫で確認。削除済み商品の明細はカート表示と同じく飛ばす
		items := make([]model.OrderItem, 0, len(lines))
		ordered := make([]int64, 0, len(lines))
		var total int64
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				continue
			}
			if p.Stock < l.Quantity {
				return insufficientStock(p.ID, p.Name)
			}
			items = append(items, model.OrderItem{
				ProductID:           p.ID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   p.Price,
				Quantity:            l.Quantity,
			})
			ordered = append(ordered, p.ID)
			total += p.Price * l.Quantity
		}
		if len(items) == 0 {
			return domainError(http.StatusBadRequest, ErrEmptyCart)
		}

		order := model.Order{
			UserID: userID,
			Status: model.OrderStatusPending,
			Total:  total,
		}
		if key != "" {
			order.IdempotencyKey = &key
		}
		orderID, err := r.Orders().Create(ctx, order)
		if errors.Is(err, repo.ErrDuplicate) {
			return errIdempotencyRace
		}
		if err != nil {
			return internalError(ctx, "order.checkout.create", err)
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return internalError(ctx, "order.checkout.items", err)
		}

		//条件付き減算。0件なら他の注文に取られている。
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return internalError(ctx, "order.checkout.decrease", err)
			}
			if !ok {
				return ErrStockConflict
			}
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   it.ProductID,
				ActorUserID: userID,
				Delta:       -it.Quantity,
				Reason:      fmt.Sprintf("order #%d", orderID),
			}); err != nil {
				return internalError(ctx, "order.checkout.adjustment", err)
			}
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return internalError(ctx, "order.checkout.clear", err)
		}

		created, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return internalError(ctx, "order.checkout.reload", err)
		}
		out = CheckoutResult{Order: created}
		touched = ordered
		return nil
	})
	if err != nil {
		return CheckoutResult{}, nil, err
	}
	return out, touched, nil
}

type ListOrdersInput struct {
	Status string
	// adminのみ有効
	UserID *int64
	Limit  int
	Offset int
}

// customerは自分の注文だけ、adminは全件
func (u *OrderUsecase) List(ctx context.Context, id model.Identity, in ListOrdersInput) ([]model.Order, error) {
	if !id.Authenticated() {
		return nil, unauthorized()
	}
	if in.Status != "" {
		if _, ok := model.ParseOrderStatus(in.Status); !ok {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}
	if in.Limit < 0 || in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}

	f := repo.OrderListFilter{
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if id.IsAdmin() {
		f.UserID = in.UserID
	} else {
		uid := id.UserID
		f.UserID = &uid
	}

	orders, err := u.orders.List(ctx, f)
	if err != nil {
		return nil, internalError(ctx, "order.list", err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// 他人の注文は存在しない扱い（404）
func (u *OrderUsecase) Get(ctx context.Context, id model.Identity, orderID int64) (model.Order, error) {
	if !id.Authenticated() {
		return model.Order{}, unauthorized()
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, notFound("order")
	}
	if err != nil {
		return model.Order{}, internalError(ctx, "order.get", err)
	}
	if !id.CanAccess(o.UserID) {
		return model.Order{}, notFound("order")
	}
	return o, nil
}
