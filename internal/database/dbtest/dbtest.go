// Package dbtest provides a migrated in-memory database for service tests.
package dbtest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backoffice-system/internal/database"
	"backoffice-system/internal/database/models"
)

// New opens a private sqlite memory database. The pool is pinned to one
// connection because every sqlite memory connection is its own database.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func SeedCustomer(t *testing.T, db *gorm.DB, nationalID, name string) models.Customer {
	t.Helper()
	c := models.Customer{NationalID: nationalID, Name: name, Phone: "3001234567", Active: true}
	require.NoError(t, db.Create(&c).Error)
	return c
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, price, stock int64) models.Product {
	t.Helper()
	p := models.Product{
		Name:     name,
		Type:     models.ProductSimple,
		Category: "hogar",
		Unit:     "unidad",
		Price:    price,
		Stock:    stock,
		MinStock: 2,
		Active:   true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func Stock(t *testing.T, db *gorm.DB, productID int64) int64 {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}
