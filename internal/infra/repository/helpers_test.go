package repository

import (
	"context"
	"path/filepath"
	"testing"

	"grocery/internal/config"
	"grocery/internal/domain/model"
	"grocery/internal/infra/db"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := db.Connect(config.Config{
		DBDriver:   "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "repo.db"),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gormDB
}

func seedProduct(t *testing.T, gormDB *gorm.DB, name string, price, stock int64) model.Product {
	t.Helper()
	p, err := NewProductGormRepository(gormDB).Create(context.Background(), model.Product{
		Name: name, Price: price, Stock: stock, Category: "produce",
	})
	require.NoError(t, err)
	return p
}

func seedUser(t *testing.T, gormDB *gorm.DB, email string) *model.User {
	t.Helper()
	u := &model.User{Username: email, Email: email, PasswordHash: "x", Role: model.RoleCustomer, IsActive: true}
	require.NoError(t, NewUserGormRepository(gormDB).Create(context.Background(), u))
	return u
}
