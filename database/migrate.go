package database

import (
	"fmt"

	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
	"gorm.io/gorm"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		&models.Cafe{},
		&models.Table{},
		&models.Category{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Bill{},
	}
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if utils.InfoLogger != nil {
		utils.InfoLogger.Println("AutoMigrate completed.")
	}
	return nil
}
