package initializers

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectToDB() {
	dsn := viper.GetString("DB_URL")
	if dsn == "" {
		Log.Fatal("DB_URL is not set")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	DB = db
	Log.Info("Connected to database")
}
