package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/config"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// ConfigController exposes client-relevant configuration.
type ConfigController struct {
	cfg config.AppConfig
}

func NewConfigController(cfg config.AppConfig) *ConfigController { return &ConfigController{cfg: cfg} }

// GetUploadConfig returns the upload size limit and the grouped extension allow-list.
func (c *ConfigController) GetUploadConfig(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"max_upload_size_mb": c.cfg.MaxUploadSizeMB,
		"max_upload_bytes":   c.cfg.MaxUploadBytes(),
		"allowed_extensions": c.cfg.AllowedExtensions,
	})
}
