package routes

import (
	"github.com/Kariqs/artcorner-api/controllers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/gin-gonic/gin"
)

func PaymentRoutes(server *gin.Engine) {
	payment := server.Group("/api/payment")
	{
		// Stripe signs the webhook body, it carries no bearer token
		payment.POST("/webhook", controllers.StripeWebhook)
		payment.POST("/create-checkout-session", middlewares.RequireAuth(), controllers.CreateCheckoutSession)
		payment.POST("/payment-success", middlewares.RequireAuth(), controllers.PaymentSuccess)
	}
}
