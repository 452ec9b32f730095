package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/middleware"
	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// AuthController handles login, logout and the current-user lookup.
type AuthController struct {
	board     *services.Board
	secret    string
	tokenTTL  time.Duration
	blacklist *utils.TokenBlacklist
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(board *services.Board, secret string, tokenTTL time.Duration, blacklist *utils.TokenBlacklist) *AuthController {
	return &AuthController{board: board, secret: secret, tokenTTL: tokenTTL, blacklist: blacklist}
}

// Login verifies credentials from a form or JSON body and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `form:"username" json:"username" binding:"required"`
		Password string `form:"password" json:"password" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.board.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(ctx, err, 6)
		return
	}

	token, expiresAt, err := utils.GenerateToken(a.secret, user.ID, user.DisplayName, a.tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expiresAt,
		"expiresIn":    int(a.tokenTTL.Seconds()),
		"userName":     user.DisplayName,
		"user":         user,
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	claims, err := utils.ParseToken(a.secret, token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(a.tokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	a.blacklist.Revoke(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	user, err := a.board.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		respondError(ctx, err, 1)
		return
	}
	utils.Success(ctx, user)
}
