package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the display name inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey stores the raw bearer token for logout.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired(secret string, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := BearerToken(ctx)
		if !ok {
			ctx.Abort()
			return
		}

		if blacklist != nil && blacklist.IsRevoked(tokenString) {
			utils.Error(ctx, http.StatusUnauthorized, 40104, "token revoked")
			ctx.Abort()
			return
		}

		claims, err := utils.ParseToken(secret, tokenString)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.UserName)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// BearerToken extracts the token from the Authorization header and writes the
// error response itself when the header is unusable.
func BearerToken(ctx *gin.Context) (string, bool) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40101, "authorization header missing")
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, 40102, "invalid authorization header format")
		return "", false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "empty bearer token")
		return "", false
	}
	return tokenString, true
}
