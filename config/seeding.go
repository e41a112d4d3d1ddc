package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/garage/models"
)

// SeedDemoCompany creates a demo tenant with one branch and an admin account.
// It is idempotent: rerunning against a seeded database is a no-op. The admin
// password comes from SEED_ADMIN_PASSWORD, defaulting to "changeme123".
func SeedDemoCompany() error {
	var count int64
	if err := DB.Model(&models.Company{}).Where("code = ?", "DEMO").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Demo company already seeded, skipping")
		return nil
	}

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	company := models.Company{
		Name:     "Demo Garage",
		Code:     "DEMO",
		Email:    "demo@example.com",
		IsActive: true,
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		branch := models.Branch{
			CompanyID: company.ID,
			Name:      "Main Workshop",
			IsActive:  true,
		}
		if err := tx.Create(&branch).Error; err != nil {
			return err
		}

		admin := models.CompanyUser{
			CompanyID:    company.ID,
			BranchID:     &branch.ID,
			Name:         "Demo Admin",
			Email:        "admin@example.com",
			PasswordHash: string(hash),
			Role:         "admin",
			IsActive:     true,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		log.Printf("✅ Seeded demo company %s with admin %s", company.Code, admin.Email)
		return nil
	})
}
