package middlewares

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

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	viper.Set("JWT_SECRET", testSecret)

	r := gin.New()
	r.GET("/me", RequireAuth(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"userId": UserID(ctx), "admin": IsAdmin(ctx), "self": CanActFor(ctx, "u-1")})
	})
	r.GET("/admin", RequireAuth(), RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r := newRouter()
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("missing token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", "").Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "exp": exp}, "other")
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", token).Code)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret)
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", token).Code)
	})

	t.Run("no expiry", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1"}, testSecret)
		assert.Equal(t, http.StatusUnauthorized, do(r, "/me", token).Code)
	})

	t.Run("valid", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{"user_id": "u-1", "role": "user", "exp": exp}, testSecret)
		rec := do(r, "/me", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"userId":"u-1","admin":false,"self":true}`, rec.Body.String())
	})
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()
	exp := time.Now().Add(time.Hour).Unix()

	user := signToken(t, jwt.MapClaims{"user_id": "u-2", "role": "user", "exp": exp}, testSecret)
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", user).Code)

	admin := signToken(t, jwt.MapClaims{"user_id": "u-3", "role": "admin", "exp": exp}, testSecret)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", admin).Code)

	rec := do(r, "/me", admin)
	assert.JSONEq(t, `{"userId":"u-3","admin":true,"self":true}`, rec.Body.String())
}
