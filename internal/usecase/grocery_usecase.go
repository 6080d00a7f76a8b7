package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

// 買い物リストとアイテム。注文系とは独立。
type GroceryUsecase struct {
	lists repo.ListRepository
	items repo.ItemRepository
}

func NewGroceryUsecase(lists repo.ListRepository, items repo.ItemRepository) *GroceryUsecase {
	return &GroceryUsecase{lists: lists, items: items}
}

type ListInput struct {
	Name        *string
	Description *string
}

type ItemInput struct {
	Name      *string
	Quantity  *int64
	Category  *string
	Purchased *bool
	ListID    *int64
	// trueならlist_idを外す
	DetachList bool
}

func (u *GroceryUsecase) Lists(ctx context.Context, id model.Identity) ([]model.List, error) {
	if !id.Authenticated() {
		return nil, unauthorized()
	}
	lists, err := u.lists.ListByUserID(ctx, id.UserID)
	if err != nil {
		return nil, internalError(ctx, "list.list", err)
	}
	if lists == nil {
		lists = []model.List{}
	}
	return lists, nil
}

func (u *GroceryUsecase) CreateList(ctx context.Context, id model.Identity, in ListInput) (model.List, error) {
	if !id.Authenticated() {
		return model.List{}, unauthorized()
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return model.List{}, NewHTTPError(http.StatusBadRequest, "name required")
	}

	l := model.List{UserID: id.UserID, Name: strings.TrimSpace(*in.Name)}
	if in.Description != nil {
		l.Description = *in.Description
	}
	created, err := u.lists.Create(ctx, l)
	if err != nil {
		return model.List{}, internalError(ctx, "list.create", err)
	}
	return created, nil
}

func (u *GroceryUsecase) UpdateList(ctx context.Context, id model.Identity, listID int64, in ListInput) (model.List, error) {
	l, err := u.ownedList(ctx, id, listID)
	if err != nil {
		return model.List{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return model.List{}, NewHTTPError(http.StatusBadRequest, "name required")
		}
		l.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		l.Description = *in.Description
	}

	if err := u.lists.Update(ctx, l); err != nil {
		return model.List{}, internalError(ctx, "list.update", err)
	}
	updated, err := u.lists.FindByID(ctx, listID)
	if err != nil {
		return model.List{}, internalError(ctx, "list.update.reload", err)
	}
	return updated, nil
}

// アイテムは消さずにリストから外す
func (u *GroceryUsecase) DeleteList(ctx context.Context, id model.Identity, listID int64) error {
	if _, err := u.ownedList(ctx, id, listID); err != nil {
		return err
	}
	if err := u.lists.Delete(ctx, listID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("list")
		}
		return internalError(ctx, "list.delete", err)
	}
	return nil
}

func (u *GroceryUsecase) Items(ctx context.Context, id model.Identity, listID *int64) ([]model.Item, error) {
	if !id.Authenticated() {
		return nil, unauthorized()
	}
	if listID != nil {
		if _, err := u.ownedList(ctx, id, *listID); err != nil {
			return nil, err
		}
	}

	items, err := u.items.List(ctx, repo.ItemListFilter{UserID: id.UserID, ListID: listID})
	if err != nil {
		return nil, internalError(ctx, "item.list", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (u *GroceryUsecase) GetItem(ctx context.Context, id model.Identity, itemID int64) (model.Item, error) {
	return u.ownedItem(ctx, id, itemID)
}

func (u *GroceryUsecase) CreateItem(ctx context.Context, id model.Identity, in ItemInput) (model.Item, error) {
	if !id.Authenticated() {
		return model.Item{}, unauthorized()
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return model.Item{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Category == nil || strings.TrimSpace(*in.Category) == "" {
		return model.Item{}, NewHTTPError(http.StatusBadRequest, "category required")
	}

	it := model.Item{
		UserID:   id.UserID,
		Name:     strings.TrimSpace(*in.Name),
		Category: strings.TrimSpace(*in.Category),
		Quantity: 1,
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			return model.Item{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
		it.Quantity = *in.Quantity
	}
	if in.Purchased != nil {
		it.Purchased = *in.Purchased
	}
	if in.ListID != nil {
		if err := u.checkAttachable(ctx, id.UserID, *in.ListID); err != nil {
			return model.Item{}, err
		}
		it.ListID = in.ListID
	}

	created, err := u.items.Create(ctx, it)
	if err != nil {
		return model.Item{}, internalError(ctx, "item.create", err)
	}
	return created, nil
}

func (u *GroceryUsecase) UpdateItem(ctx context.Context, id model.Identity, itemID int64, in ItemInput) (model.Item, error) {
	it, err := u.ownedItem(ctx, id, itemID)
	if err != nil {
		return model.Item{}, err
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return model.Item{}, NewHTTPError(http.StatusBadRequest, "name required")
		}
		it.Name = strings.TrimSpace(*in.Name)
	}
	if in.Category != nil {
		if strings.TrimSpace(*in.Category) == "" {
			return model.Item{}, NewHTTPError(http.StatusBadRequest, "category required")
		}
		it.Category = strings.TrimSpace(*in.Category)
	}
	if in.Quantity != nil {
		if *in.Quantity < 1 {
			return model.Item{}, NewHTTPError(http.StatusBadRequest, "quantity must be >= 1")
		}
		it.Quantity = *in.Quantity
	}
	if in.Purchased != nil {
		it.Purchased = *in.Purchased
	}
	switch {
	case in.DetachList:
		it.ListID = nil
	case in.ListID != nil:
		if err := u.checkAttachable(ctx, it.UserID, *in.ListID); err != nil {
			return model.Item{}, err
		}
		it.ListID = in.ListID
	}

	if err := u.items.Update(ctx, it); err != nil {
		return model.Item{}, internalError(ctx, "item.update", err)
	}
	updated, err := u.items.FindByID(ctx, itemID)
	if err != nil {
		return model.Item{}, internalError(ctx, "item.update.reload", err)
	}
	return updated, nil
}

func (u *GroceryUsecase) DeleteItem(ctx context.Context, id model.Identity, itemID int64) error {
	if _, err := u.ownedItem(ctx, id, itemID); err != nil {
		return err
	}
	if err := u.items.Delete(ctx, itemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("item")
		}
		return internalError(ctx, "item.delete", err)
	}
	return nil
}

// 存在しなければ404、他人のものなら403
func (u *GroceryUsecase) ownedList(ctx context.Context, id model.Identity, listID int64) (model.List, error) {
	if !id.Authenticated() {
		return model.List{}, unauthorized()
	}
	if listID <= 0 {
		return model.List{}, NewHTTPError(http.StatusBadRequest, "invalid list id")
	}
	l, err := u.lists.FindByID(ctx, listID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.List{}, notFound("list")
	}
	if err != nil {
		return model.List{}, internalError(ctx, "list.find", err)
	}
	if !id.CanAccess(l.UserID) {
		return model.List{}, forbidden()
	}
	return l, nil
}

func (u *GroceryUsecase) ownedItem(ctx context.Context, id model.Identity, itemID int64) (model.Item, error) {
	if !id.Authenticated() {
		return model.Item{}, unauthorized()
	}
	if itemID <= 0 {
		return model.Item{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	it, err := u.items.FindByID(ctx, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Item{}, notFound("item")
	}
	if err != nil {
		return model.Item{}, internalError(ctx, "item.find", err)
	}
	if !id.CanAccess(it.UserID) {
		return model.Item{}, forbidden()
	}
	return it, nil
}

// 付け替え先はアイテム所有者のリストだけ。違えば400。
func (u *GroceryUsecase) checkAttachable(ctx context.Context, ownerID, listID int64) error {
	l, err := u.lists.FindByID(ctx, listID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "invalid list")
	}
	if err != nil {
		return internalError(ctx, "item.list.find", err)
	}
	if l.UserID != ownerID {
		return NewHTTPError(http.StatusBadRequest, "invalid list")
	}
	return nil
}
