package routes

import (
	"github.com/Kariqs/artcorner-api/controllers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/gin-gonic/gin"
)

func CartRoutes(server *gin.Engine) {
	cart := server.Group("/api/cart", middlewares.RequireAuth())
	{
		cart.GET("/:userId", controllers.GetCart)
		cart.POST("/add-to-cart", controllers.AddToCart)
		cart.POST("/update", controllers.UpdateCartItem)
		cart.DELETE("/remove", controllers.RemoveCartItem)
	}
}
