package product

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, conn.AutoMigrate(&models.Product{}))
	return conn
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name, price string, maxQty int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		Image:       "https://cdn.example.com/" + name + ".png",
		MaxQuantity: maxQty,
		IsActive:    true,
	}
	require.NoError(t, NewRepository(conn).Create(t.Context(), p))
	return p
}
