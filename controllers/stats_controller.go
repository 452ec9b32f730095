package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// StatsController provides board statistics.
type StatsController struct {
	board *services.Board
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(board *services.Board) *StatsController {
	return &StatsController{board: board}
}

// GetStats returns counts of active users, posts, comments and attachments.
func (s *StatsController) GetStats(ctx *gin.Context) {
	utils.Success(ctx, s.board.Stats(ctx.Request.Context()))
}
