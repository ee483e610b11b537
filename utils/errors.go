package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

func Success(ctx *gin.Context, statusCode int, data interface{}) {
	ctx.JSON(statusCode, data)
}

func Error(ctx *gin.Context, statusCode int, message string) {
	ctx.JSON(statusCode, ErrorResponse{
		Error: message,
		Code:  statusCode,
	})
}

func BadRequest(ctx *gin.Context, message string) {
	Error(ctx, http.StatusBadRequest, message)
}

func NotFound(ctx *gin.Context, message string) {
	Error(ctx, http.StatusNotFound, message)
}

func Conflict(ctx *gin.Context, message string) {
	Error(ctx, http.StatusConflict, message)
}

func InternalError(ctx *gin.Context, message string) {
	Error(ctx, http.StatusInternalServerError, message)
}

func ServiceUnavailable(ctx *gin.Context, message string) {
	Error(ctx, http.StatusServiceUnavailable, message)
}

func ErrorWithDetails(ctx *gin.Context, statusCode int, message, details string) {
	ctx.JSON(statusCode, ErrorResponse{
		Error:   message,
		Code:    statusCode,
		Details: details,
	})
}
