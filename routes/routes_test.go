package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterGuardsProtectedRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	viper.Set("JWT_SECRET", "routes-secret")
	server := gin.New()
	Register(server)

	userToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("routes-secret"))
	require.NoError(t, err)

	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/cart/u-1", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/orders/u-1", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/payment/create-checkout-session", "", http.StatusUnauthorized},
		{http.MethodPost, "/api/payment/payment-success", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/orders", userToken, http.StatusForbidden},
		{http.MethodGet, "/api/admin/orders/undelivered", userToken, http.StatusForbidden},
		{http.MethodPost, "/api/products", userToken, http.StatusForbidden},
		{http.MethodPost, "/api/events", userToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
