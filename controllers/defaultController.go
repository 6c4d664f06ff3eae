package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the Art Corner API. Buy original artwork and tickets to exhibitions and workshops.

The following are the endpoints for this API:

AUTH
- POST "/auth/signup" - Create user account
- POST "/auth/login" - Access user account

ARTWORK
- POST "/api/products" - Create new artwork (admin)
- GET "/api/products" - Get artworks (search, category, sort, page, limit)
- GET "/api/products/:id" - Get artwork by ID
- POST "/api/products/:id/images" - Add artwork images (admin)

EVENTS
- POST "/api/events" - Create new event (admin)
- GET "/api/events" - Get events (upcoming, search, sort, page, limit)
- GET "/api/events/:id" - Get event by ID

CART
- GET "/api/cart/:userId" - Get cart lines
- POST "/api/cart/add-to-cart" - Add an artwork or ticket
- POST "/api/cart/update" - Set the quantity of a line
- DELETE "/api/cart/remove" - Remove a line

ORDERS
- POST "/api/orders/:userId" - Place a cash or card order
- GET "/api/orders/:userId" - Get orders for a user

PAYMENT
- POST "/api/payment/create-checkout-session" - Start an online payment
- POST "/api/payment/payment-success" - Record the order for a paid session
- POST "/api/payment/webhook" - Stripe events

ADMIN
- GET "/api/admin/orders" - Retrieve all orders
- GET "/api/admin/orders/undelivered" - Count open orders
- GET "/api/admin/orders/:orderId" - Get order by ID
- PATCH "/api/admin/orders/:orderId/status" - Update order status
- DELETE "/api/admin/orders/:orderId" - Delete order by ID`

	ctx.JSON(http.StatusOK, gin.H{
		"message": message,
	})
}
