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

type AdminOrderUsecase struct {
	tx    repo.TransactionManager
	cache ProductCache
	// falseなら任意のステータスへ変更できる
	strict bool
}

func NewAdminOrderUsecase(tx repo.TransactionManager, cache ProductCache, strict bool) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, cache: cache, strict: strict}
}

// ステータス更新（cancelledなら在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actor model.Identity, orderID int64, status string) (model.Order, error) {
	if !actor.IsAdmin() {
		return model.Order{}, forbidden()
	}
	if orderID <= 0 {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	next, ok := model.ParseOrderStatus(strings.TrimSpace(status))
	if !ok {
		return model.Order{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out model.Order
	var restocked []int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("order")
		}
		if err != nil {
			return internalError(ctx, "order.status.find", err)
		}

		// 同じなら何もしない
		if o.Status == next {
			out = o
			return nil
		}
		if u.strict && !o.Status.CanTransitionTo(next) {
			return &HTTPError{
				Status:  http.StatusBadRequest,
				Message: fmt.Sprintf("cannot change status from %s to %s", o.Status, next),
				Err:     ErrInvalidStatusTransition,
			}
		}

		// 発送前のキャンセルだけ在庫を戻す。戻すのは注文ごとに1回
		if next == model.OrderStatusCancelled && o.Status.Restockable() && !o.Restocked {
			for _, it := range o.Items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
					return internalError(ctx, "order.status.restock", err)
				}
				if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   it.ProductID,
					ActorUserID: actor.UserID,
					Delta:       it.Quantity,
					Reason:      fmt.Sprintf("cancel order #%d", orderID),
				}); err != nil {
					return internalError(ctx, "order.status.adjustment", err)
				}
				restocked = append(restocked, it.ProductID)
			}
			if err := r.Orders().MarkRestocked(ctx, orderID); err != nil {
				return internalError(ctx, "order.status.mark_restocked", err)
			}
			o.Restocked = true
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, next); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return notFound("order")
			}
			return internalError(ctx, "order.status.update", err)
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actor.UserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   toJSON(map[string]string{"status": string(o.Status)}),
			AfterJSON:    toJSON(map[string]string{"status": string(next)}),
		}); err != nil {
			return internalError(ctx, "order.status.audit", err)
		}

		o.Status = next
		out = o
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	if len(restocked) > 0 {
		if err := u.cache.Invalidate(ctx, restocked...); err != nil {
			slog.WarnContext(ctx, "product cache invalidate failed", "err", err)
		}
	}
	return out, nil
}
