package billing

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/models"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}, &models.Category{}, &models.Article{},
		&models.Customer{}, &models.Invoice{}, &models.InvoiceLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedCustomer(t *testing.T, conn *gorm.DB) models.Customer {
	t.Helper()
	c := models.Customer{
		Document: "900123456",
		Name:     "Comercial Andina",
		Address:  "Cra 7 # 12-34",
		Phone:    "3001234567",
		Active:   true,
	}
	if err := conn.Create(&c).Error; err != nil {
		t.Fatalf("customer: %v", err)
	}
	return c
}

func seedArticle(t *testing.T, conn *gorm.DB, code string, price string, stock int) models.Article {
	t.Helper()
	a := models.Article{
		Code:      code,
		Name:      "Article " + code,
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
		MinStock:  2,
		Active:    true,
	}
	if err := conn.Create(&a).Error; err != nil {
		t.Fatalf("article %s: %v", code, err)
	}
	return a
}

func articleStock(t *testing.T, conn *gorm.DB, id uint) int {
	t.Helper()
	var a models.Article
	if err := conn.First(&a, id).Error; err != nil {
		t.Fatalf("reload article %d: %v", id, err)
	}
	return a.Stock
}
