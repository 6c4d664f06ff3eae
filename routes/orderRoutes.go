package routes

import (
	"github.com/Kariqs/artcorner-api/controllers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(server *gin.Engine) {
	orders := server.Group("/api/orders", middlewares.RequireAuth())
	{
		orders.POST("/:userId", controllers.CreateOrder)
		orders.GET("/:userId", controllers.GetOrdersByCustomer)
	}

	admin := server.Group("/api/admin/orders", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.GET("", controllers.GetOrders)
		admin.GET("/undelivered", controllers.GetUndeliveredOrders)
		admin.GET("/:orderId", controllers.GetOrderById)
		admin.PATCH("/:orderId/status", controllers.UpdateOrderStatus)
		admin.DELETE("/:orderId", controllers.DeleteOrder)
	}
}
