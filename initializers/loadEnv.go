package initializers

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func setDefaults() {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("CURRENCY", "eur")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,https://www.artcorner.app")
	viper.SetDefault("JWT_TTL_HOURS", 24*30)
}

// LoadEnv reads .env when present and exposes the process environment through viper.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the process environment")
	}
	setDefaults()
	viper.AutomaticEnv()
}

func AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(viper.GetString("ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
