package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yjchoi-grove/vibe-coding/config"
	"github.com/yjchoi-grove/vibe-coding/controllers"
	"github.com/yjchoi-grove/vibe-coding/middleware"
	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Config    config.AppConfig
	Board     *services.Board
	Blacklist *utils.TokenBlacklist
	// UploadRoot is served under /uploads when set (local storage only).
	UploadRoot string
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if err := utils.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file when configured
	accessLog := utils.Logger
	if cfg.GinPath != "" {
		if gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress); err == nil {
			accessLog = gl
		} else {
			utils.Sugar.Warnf("gin access log disabled: %v", err)
		}
	}
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(accessLog, false))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if deps.UploadRoot != "" {
		r.Static("/uploads", deps.UploadRoot)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(deps.Board, cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour, deps.Blacklist)
	postController := controllers.NewPostController(deps.Board)
	commentController := controllers.NewCommentController(deps.Board)
	fileController := controllers.NewFileController(deps.Board)
	statsController := controllers.NewStatsController(deps.Board)
	configController := controllers.NewConfigController(cfg)

	authRequired := middleware.AuthRequired(cfg.JWTSecret, deps.Blacklist)

	api := r.Group("/api")
	api.POST("/login", middleware.RateLimitMiddleware(cfg.RateLimitPerMin), authController.Login)

	// Public reads
	api.GET("/posts/:id/comments", commentController.ListComments)
	api.GET("/stats", statsController.GetStats)
	api.GET("/config/uploads", configController.GetUploadConfig)

	protected := api.Group("")
	protected.Use(authRequired, middleware.RateLimitMiddleware(cfg.RateLimitPerMin))
	protected.POST("/logout", authController.Logout)
	protected.GET("/me", authController.Me)

	protected.GET("/posts", postController.ListPosts)
	protected.POST("/posts", postController.CreatePost)
	protected.GET("/posts/:id", postController.GetPost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)

	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.PUT("/comments/:id", commentController.UpdateComment)
	protected.DELETE("/comments/:id", commentController.DeleteComment)

	protected.GET("/posts/:id/attachments", fileController.ListPostAttachments)
	protected.GET("/posts/:id/attachments/:attachmentId", fileController.DownloadPostAttachment)
	protected.DELETE("/posts/:id/attachments/:attachmentId", fileController.DeletePostAttachment)
	// older clients soft-delete through PUT
	protected.PUT("/posts/:id/attachments/:attachmentId/delete", fileController.DeletePostAttachment)
	protected.POST("/posts/:id/files", fileController.AddFiles)
	protected.PUT("/posts/:id/files", fileController.ReplaceFiles)
	protected.GET("/attachments", fileController.ListAttachments)
	protected.GET("/files/:id", fileController.DownloadFile)
	protected.DELETE("/files/:id", fileController.DeleteFile)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		ctx.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	})

	return r, nil
}
