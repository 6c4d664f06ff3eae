package initializers

import (
	"github.com/spf13/viper"
	"github.com/stripe/stripe-go/v81"
)

func ConfigureStripe() {
	key := viper.GetString("STRIPE_SECRET_KEY")
	if key == "" {
		Log.Warn("STRIPE_SECRET_KEY is not set, online payments will fail")
		return
	}
	stripe.Key = key
}
