package initializers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var Log = zap.NewNop()

func InitLogger() {
	var (
		logger *zap.Logger
		err    error
	)
	if viper.GetString("GIN_MODE") == gin.ReleaseMode {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	Log = logger
}
