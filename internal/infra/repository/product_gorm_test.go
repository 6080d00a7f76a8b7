package repository

import (
	"context"
	"testing"
	"time"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductGorm_ListFiltersAndSort(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewProductGormRepository(gormDB)
	ctx := context.Background()

	apple := seedProduct(t, gormDB, "Green Apple", 120, 10)
	time.Sleep(5 * time.Millisecond)
	milk := seedProduct(t, gormDB, "Milk", 250, 3)
	_, err := r.Create(ctx, model.Product{Name: "Pineapple", Price: 400, Stock: 1, Category: "fruit"})
	require.NoError(t, err)

	all, err := r.List(ctx, repo.ProductListQuery{Sort: "price_asc"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, apple.ID, all[0].ID)
	assert.Equal(t, milk.ID, all[1].ID)

	byName, err := r.List(ctx, repo.ProductListQuery{Q: "APPLE", Sort: "name"})
	require.NoError(t, err)
	require.Len(t, byName, 2)
	assert.Equal(t, "Green Apple", byName[0].Name)

	fruit, err := r.List(ctx, repo.ProductListQuery{Category: "fruit"})
	require.NoError(t, err)
	require.Len(t, fruit, 1)
	assert.Equal(t, "Pineapple", fruit[0].Name)
}

func TestProductGorm_UpdateAndSoftDelete(t *testing.T) {
	gormDB := openTestDB(t)
	r := NewProductGormRepository(gormDB)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "Bread", 300, 5)
	p.Price = 0
	p.Stock = 0
	require.NoError(t, r.Update(ctx, p))

	got, err := r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Price)
	assert.Equal(t, int64(0), got.Stock)

	require.NoError(t, r.SoftDelete(ctx, p.ID))
	_, err = r.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.SoftDelete(ctx, p.ID), repo.ErrNotFound)
	assert.ErrorIs(t, r.Update(ctx, model.Product{ID: 999, Name: "x"}), repo.ErrNotFound)

	found, err := r.FindByIDs(ctx, []int64{p.ID, 999})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestInventoryGorm_DecreaseStockIfEnough(t *testing.T) {
	gormDB := openTestDB(t)
	inv := NewInventoryGormRepository(gormDB)
	products := NewProductGormRepository(gormDB)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "Eggs", 500, 5)

	ok, err := inv.DecreaseStockIfEnough(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.DecreaseStockIfEnough(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Stock)

	require.NoError(t, inv.IncreaseStock(ctx, p.ID, 3))
	got, err = products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Stock)

	assert.ErrorIs(t, inv.IncreaseStock(ctx, 999, 1), repo.ErrNotFound)
}

func TestInventoryGorm_Adjustments(t *testing.T) {
	gormDB := openTestDB(t)
	inv := NewInventoryGormRepository(gormDB)
	ctx := context.Background()

	p := seedProduct(t, gormDB, "Rice", 900, 5)
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, ActorUserID: 1, Delta: 5, Reason: "initial stock"}))
	require.NoError(t, inv.CreateAdjustment(ctx, model.InventoryAdjustment{ProductID: p.ID, ActorUserID: 2, Delta: -2, Reason: "order #1"}))

	list, err := inv.ListAdjustments(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(-2), list[0].Delta)
}
