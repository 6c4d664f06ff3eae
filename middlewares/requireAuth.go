package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

const claimsKey = "user"

func RequireAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(viper.GetString("JWT_SECRET")), nil
		}, jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token claims"})
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

// UserID returns the id of the authenticated user, or "" when the request carries no claims.
func UserID(ctx *gin.Context) string {
	claims, ok := ctx.Get(claimsKey)
	if !ok {
		return ""
	}
	id, _ := claims.(jwt.MapClaims)["user_id"].(string)
	return id
}

func IsAdmin(ctx *gin.Context) bool {
	claims, ok := ctx.Get(claimsKey)
	if !ok {
		return false
	}
	role, _ := claims.(jwt.MapClaims)["role"].(string)
	return role == "admin"
}

// CanActFor reports whether the authenticated user may read or modify userID's resources.
func CanActFor(ctx *gin.Context, userID string) bool {
	return userID != "" && (UserID(ctx) == userID || IsAdmin(ctx))
}
