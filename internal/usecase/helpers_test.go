package usecase_test

import (
	"context"
	"path/filepath"
	"testing"

	"grocery/internal/config"
	"grocery/internal/domain/model"
	"grocery/internal/infra/db"
	gormrepo "grocery/internal/infra/repository"
	repo "grocery/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin    = model.Identity{UserID: 1, Role: model.RoleAdmin}
	alice    = model.Identity{UserID: 2, Role: model.RoleCustomer}
	bob      = model.Identity{UserID: 3, Role: model.RoleCustomer}
	nobodyID = model.Identity{}
)

// sqliteに本物のrepoを載せた環境
type env struct {
	db    *gorm.DB
	tx    repo.TransactionManager
	repos repo.TxRepos
	cache *memoryCache
}

func newEnv(t *testing.T) *env {
	t.Helper()

	cfg := config.Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "usecase.db")}
	gormDB, err := db.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return &env{
		db:    gormDB,
		tx:    gormrepo.NewTxManagerGorm(gormDB),
		repos: gormrepo.NewRepos(gormDB),
		cache: newMemoryCache(),
	}
}

func (e *env) product(t *testing.T, name string, price, stock int64) model.Product {
	t.Helper()
	p, err := e.repos.Products().Create(context.Background(), model.Product{
		Name:     name,
		Price:    price,
		Stock:    stock,
		Category: "produce",
	})
	require.NoError(t, err)
	return p
}

func (e *env) stock(t *testing.T, productID int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, e.db.Unscoped().First(&p, productID).Error)
	return p.Stock
}

func (e *env) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&model.Order{}).Count(&n).Error)
	return n
}
