package repository

import (
	"context"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"gorm.io/gorm"
)

type listGormRepository struct {
	db *gorm.DB
}

func NewListGormRepository(db *gorm.DB) repo.ListRepository {
	return &listGormRepository{db: db}
}

func itemsNewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at desc").Order("id desc")
}

func (r *listGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.List, error) {
	lists := []model.List{}
	err := r.db.WithContext(ctx).
		Preload("Items", itemsNewestFirst).
		Where("user_id = ?", userID).
		Order("created_at desc").Order("id desc").
		Find(&lists).Error
	if err != nil {
		return []model.List{}, err
	}
	return lists, nil
}

func (r *listGormRepository) FindByID(ctx context.Context, listID int64) (model.List, error) {
	var l model.List
	if err := r.db.WithContext(ctx).Preload("Items", itemsNewestFirst).First(&l, listID).Error; err != nil {
		return model.List{}, translate(err)
	}
	return l, nil
}

func (r *listGormRepository) Create(ctx context.Context, list model.List) (model.List, error) {
	list.Items = nil
	if err := r.db.WithContext(ctx).Create(&list).Error; err != nil {
		return model.List{}, err
	}
	list.Items = []model.Item{}
	return list, nil
}

func (r *listGormRepository) Update(ctx context.Context, list model.List) error {
	res := r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", list.ID).Updates(map[string]interface{}{
		"name":        list.Name,
		"description": list.Description,
	})
	return affected(res)
}

// itemは消さずにリストから外す
func (r *listGormRepository) Delete(ctx context.Context, listID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Item{}).
			Where("list_id = ?", listID).
			Update("list_id", nil).Error; err != nil {
			return err
		}
		return affected(tx.Delete(&model.List{}, listID))
	})
}

type itemGormRepository struct {
	db *gorm.DB
}

func NewItemGormRepository(db *gorm.DB) repo.ItemRepository {
	return &itemGormRepository{db: db}
}

func (r *itemGormRepository) List(ctx context.Context, f repo.ItemListFilter) ([]model.Item, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.ListID != nil {
		q = q.Where("list_id = ?", *f.ListID)
	}

	items := []model.Item{}
	if err := itemsNewestFirst(q).Find(&items).Error; err != nil {
		return []model.Item{}, err
	}
	return items, nil
}

func (r *itemGormRepository) FindByID(ctx context.Context, itemID int64) (model.Item, error) {
	var it model.Item
	if err := r.db.WithContext(ctx).First(&it, itemID).Error; err != nil {
		return model.Item{}, translate(err)
	}
	return it, nil
}

func (r *itemGormRepository) Create(ctx context.Context, item model.Item) (model.Item, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// 全項目を書き戻す（falseや0も反映させるためmapで渡す）
func (r *itemGormRepository) Update(ctx context.Context, item model.Item) error {
	res := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
		"name":      item.Name,
		"quantity":  item.Quantity,
		"category":  item.Category,
		"purchased": item.Purchased,
		"list_id":   item.ListID,
	})
	return affected(res)
}

func (r *itemGormRepository) Delete(ctx context.Context, itemID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Item{}, itemID))
}
