package controllers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/Kariqs/artcorner-api/middlewares"
	"github.com/Kariqs/artcorner-api/models"
	"github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to ":memory:" opens a fresh database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, initializers.Migrate(db))
	initializers.DB = db

	viper.Set("JWT_SECRET", "controller-test-secret")
	viper.Set("JWT_TTL_HOURS", 1)
	viper.Set("CURRENCY", "eur")
	viper.Set("FRONTEND_URL", "http://shop.test")
	viper.Set("SMTP_ADDRESS", "")
	return db
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	api := r.Group("/api", middlewares.RequireAuth())
	api.GET("/cart/:userId", GetCart)
	api.POST("/cart/add-to-cart", AddToCart)
	api.POST("/cart/update", UpdateCartItem)
	api.DELETE("/cart/remove", RemoveCartItem)
	api.POST("/orders/:userId", CreateOrder)
	api.GET("/orders/:userId", GetOrdersByCustomer)
	api.POST("/payment/create-checkout-session", CreateCheckoutSession)
	api.POST("/payment/payment-success", PaymentSuccess)

	admin := api.Group("/admin", middlewares.RequireAdmin())
	admin.GET("/orders", GetOrders)
	admin.GET("/orders/undelivered", GetUndeliveredOrders)
	admin.PATCH("/orders/:orderId/status", UpdateOrderStatus)
	admin.DELETE("/orders/:orderId", DeleteOrder)

	r.POST("/api/payment/webhook", StripeWebhook)
	r.GET("/api/products", GetProducts)
	r.GET("/api/products/:id", GetProduct)
	r.GET("/api/events", GetEvents)
	return r
}

func createUser(t *testing.T, db *gorm.DB, username, role string) (models.User, string) {
	t.Helper()
	user := models.User{
		Fullname: username,
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)

	token, err := generateJWT(user)
	require.NoError(t, err)
	return user, token
}

func createProduct(t *testing.T, db *gorm.DB, name string, price float64, quantity int) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, Quantity: quantity, Category: "painting"}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func createEvent(t *testing.T, db *gorm.DB, title string, price float64, capacity int) models.Event {
	t.Helper()
	event := models.Event{Title: title, Price: price, Capacity: capacity}
	require.NoError(t, db.Create(&event).Error)
	return event
}

func performRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var payload bytes.Buffer
	if body != nil {
		json.NewEncoder(&payload).Encode(body)
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type fakeGateway struct {
	created  []*stripe.CheckoutSessionParams
	sessions map[string]*stripe.CheckoutSession
	lookups  int
}

func (f *fakeGateway) CreateCheckoutSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = append(f.created, params)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (f *fakeGateway) GetCheckoutSession(id string) (*stripe.CheckoutSession, error) {
	f.lookups++
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("no such checkout session")
	}
	return s, nil
}

func useFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	fake := &fakeGateway{sessions: map[string]*stripe.CheckoutSession{}}
	previous := Payments
	Payments = fake
	t.Cleanup(func() { Payments = previous })
	return fake
}
