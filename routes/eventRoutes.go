package routes

import (
	"github.com/Kariqs/artcorner-api/controllers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/gin-gonic/gin"
)

func EventRoutes(server *gin.Engine) {
	events := server.Group("/api/events")
	{
		events.GET("", controllers.GetEvents)
		events.GET("/:id", controllers.GetEvent)
		events.POST("", middlewares.RequireAuth(), middlewares.RequireAdmin(), controllers.CreateEvent)
	}
}
