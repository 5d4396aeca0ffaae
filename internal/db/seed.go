package db

import (
	"errors"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/facturacion-backend/internal/models"
)

// Seed inserts the baseline records a fresh development database needs: an
// admin user and the default categories. Existing rows are left alone so the
// seed can run repeatedly.
func Seed(conn *gorm.DB) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@local"
	}
	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminPass == "" {
		adminPass = "admin123"
	}
	var existing models.User
	if err := conn.Where("email = ?", adminEmail).First(&existing).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		hash, err := bcrypt.GenerateFromPassword([]byte(adminPass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		admin := models.User{Email: adminEmail, Password: string(hash), Name: "Administrator", Active: true}
		if err := conn.Create(&admin).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	for _, c := range []models.Category{
		{Name: "General", Description: "Uncategorized articles", Active: true},
	} {
		var cat models.Category
		if err := conn.Where("name = ?", c.Name).First(&cat).Error; errors.Is(err, gorm.ErrRecordNotFound) {
			if err := conn.Create(&c).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
	}
	return nil
}
