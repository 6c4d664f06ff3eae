package routes

import "github.com/gin-gonic/gin"

// Register mounts every route group on server.
func Register(server *gin.Engine) {
	DefaultRoutes(server)
	AuthRoutes(server)
	ProductRoutes(server)
	EventRoutes(server)
	CartRoutes(server)
	OrderRoutes(server)
	PaymentRoutes(server)
}
