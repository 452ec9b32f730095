package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yjchoi-grove/vibe-coding/utils"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID reuses a client supplied X-Request-ID or generates one, and echoes it back.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		ctx.Set(utils.ContextRequestIDKey, id)
		ctx.Header(RequestIDHeader, id)
		ctx.Next()
	}
}
