package initializers

import (
	"github.com/Kariqs/artcorner-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductImage{},
		&models.Event{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
}

func SyncDatabase() {
	if err := Migrate(DB); err != nil {
		Log.Fatal("Database migration failed", zap.Error(err))
	}
	Log.Info("Database synced successfully.")
}
