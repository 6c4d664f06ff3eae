package main

import (
	"time"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/routes"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func init() {
	initializers.LoadEnv()
	initializers.InitLogger()
	initializers.ConnectToDB()
	initializers.SyncDatabase()
	initializers.ConfigureStripe()
}

func main() {
	defer initializers.Log.Sync()

	gin.SetMode(viper.GetString("GIN_MODE"))
	server := gin.Default()
	server.Use(cors.New(cors.Config{
		AllowOrigins:     initializers.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.Register(server)

	addr := ":" + viper.GetString("PORT")
	initializers.Log.Info("Starting server", zap.String("addr", addr))
	if err := server.Run(addr); err != nil {
		initializers.Log.Fatal("Server stopped", zap.Error(err))
	}
}
