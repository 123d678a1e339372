package db

import (
	"fmt"

	"github.com/meinhoongagan/trucktrack/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Driver{},
		&models.Vehicle{},
		&models.Customer{},
		&models.Trip{},
		&models.Expense{},
		&models.Proof{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
