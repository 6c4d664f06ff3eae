package routes

import (
	"github.com/Kariqs/artcorner-api/controllers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(server *gin.Engine) {
	products := server.Group("/api/products")
	{
		products.GET("", controllers.GetProducts)
		products.GET("/:id", controllers.GetProduct)
		products.POST("", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.CreateProduct)
		products.POST("/:id/images", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.UploadProductImages)
	}
}
