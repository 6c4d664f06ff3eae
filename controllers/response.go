package controllers

import (
	"github.com/Kariqs/artcorner-api/initializers"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func sendJSONResponse(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// sendBusinessError answers with the "error" shape the checkout client shows verbatim.
func sendBusinessError(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"error": message})
}

func respondWithError(ctx *gin.Context, statusCode int, message string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		initializers.Log.Warn(message, zap.Error(err), zap.String("path", ctx.FullPath()))
	}
	ctx.JSON(statusCode, gin.H{
		"message": message,
		"error":   errMsg,
	})
}
