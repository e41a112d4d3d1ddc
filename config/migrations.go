package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/garage/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260510_create_tenant_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Company{}, &models.Branch{}, &models.CompanyUser{},
					&models.Client{}, &models.ClientVehicle{})
			},
		},
		{
			ID: "20260510_create_session_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.GarageSession{}, &models.CustomerRequest{},
					&models.Inspection{}, &models.InspectionItem{}, &models.TestDrive{})
			},
		},
		{
			ID: "20260512_create_job_card_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.JobCard{}, &models.JobCardItem{})
			},
		},
		{
			ID: "20260512_create_media_table",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.MediaItem{})
			},
		},
		{
			ID: "20260601_create_billing_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Invoice{}, &models.InvoiceItem{}, &models.Payment{})
			},
		},
		{
			ID: "20260615_create_inventory_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.InventoryItem{}, &models.StockMovement{})
			},
		},
		{
			ID: "20260615_create_appointments_table",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Appointment{})
			},
		},
	})

	return m.Migrate()
}
