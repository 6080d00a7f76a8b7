package repository

import (
	"context"
	"testing"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserGorm(t *testing.T) {
	gormDB := openTestDB(t)
	users := NewUserGormRepository(gormDB)
	ctx := context.Background()

	u := seedUser(t, gormDB, "a@example.com")

	dup := &model.User{Username: "b", Email: "a@example.com", PasswordHash: "x", Role: model.RoleCustomer}
	assert.ErrorIs(t, users.Create(ctx, dup), repo.ErrDuplicate)

	got, err := users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = users.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = users.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, users.IncrementTokenVersion(ctx, u.ID))
	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TokenVersion)
	assert.ErrorIs(t, users.IncrementTokenVersion(ctx, 999), repo.ErrNotFound)

	//古いtoken_versionを持ったまま更新しても巻き戻らない
	got.Role = model.RoleAdmin
	got.TokenVersion = 0
	require.NoError(t, users.Update(ctx, got))
	got, err = users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.Equal(t, 1, got.TokenVersion)
}

func TestListAndItemGorm(t *testing.T) {
	gormDB := openTestDB(t)
	lists := NewListGormRepository(gormDB)
	items := NewItemGormRepository(gormDB)
	ctx := context.Background()

	l, err := lists.Create(ctx, model.List{UserID: 1, Name: "Weekly"})
	require.NoError(t, err)

	it, err := items.Create(ctx, model.Item{UserID: 1, ListID: &l.ID, Name: "Milk", Quantity: 2, Category: "dairy"})
	require.NoError(t, err)
	_, err = items.Create(ctx, model.Item{UserID: 1, Name: "Soap", Quantity: 1, Category: "household"})
	require.NoError(t, err)
	_, err = items.Create(ctx, model.Item{UserID: 2, Name: "Tea", Quantity: 1, Category: "drinks"})
	require.NoError(t, err)

	mine, err := items.List(ctx, repo.ItemListFilter{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	inList, err := items.List(ctx, repo.ItemListFilter{UserID: 1, ListID: &l.ID})
	require.NoError(t, err)
	require.Len(t, inList, 1)
	assert.Equal(t, "Milk", inList[0].Name)

	withItems, err := lists.ListByUserID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, withItems, 1)
	assert.Len(t, withItems[0].Items, 1)

	it.Purchased = true
	it.Quantity = 3
	require.NoError(t, items.Update(ctx, it))
	got, err := items.FindByID(ctx, it.ID)
	require.NoError(t, err)
	assert.True(t, got.Purchased)
	assert.Equal(t, int64(3), got.Quantity)

	l.Name = "Monthly"
	require.NoError(t, lists.Update(ctx, l))

	require.NoError(t, lists.Delete(ctx, l.ID))
	_, err = lists.FindByID(ctx, l.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	got, err = items.FindByID(ctx, it.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ListID)

	require.NoError(t, items.Delete(ctx, it.ID))
	assert.ErrorIs(t, items.Delete(ctx, it.ID), repo.ErrNotFound)
}

func TestAuditLogGorm_ListFilters(t *testing.T) {
	gormDB := openTestDB(t)
	logs := NewAuditLogGormRepository(gormDB)
	ctx := context.Background()

	require.NoError(t, logs.Create(ctx, model.AuditLog{ActorUserID: 1, Action: model.AuditActionUpdateStock, ResourceType: model.AuditResourceProduct, ResourceID: 3}))
	require.NoError(t, logs.Create(ctx, model.AuditLog{ActorUserID: 1, Action: model.AuditActionUpdateOrderStatus, ResourceType: model.AuditResourceOrder, ResourceID: 9}))

	all, err := logs.List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.AuditActionUpdateOrderStatus, all[0].Action)

	rt := model.AuditResourceProduct
	products, err := logs.List(ctx, repo.AuditLogFilter{ResourceType: &rt})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(3), products[0].ResourceID)
}
