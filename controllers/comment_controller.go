package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// CommentController serves the comment endpoints.
type CommentController struct {
	board *services.Board
}

func NewCommentController(board *services.Board) *CommentController {
	return &CommentController{board: board}
}

// ListComments returns the comment tree of a post, replies oldest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	tree, err := c.board.ListComments(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err, 30)
		return
	}
	utils.Success(ctx, tree)
}

// CreateComment adds a comment or a reply to a top-level comment.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Content         string `form:"content" json:"content" binding:"required"`
		ParentCommentID uint   `form:"parent_comment_id" json:"parent_comment_id"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	view, err := c.board.CreateComment(ctx.Request.Context(), postID, userID, req.Content, req.ParentCommentID)
	if err != nil {
		respondError(ctx, err, 31)
		return
	}
	utils.Created(ctx, view)
}

// UpdateComment edits the text of the caller's comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Content string `form:"content" json:"content" binding:"required"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid request payload")
		return
	}

	view, err := c.board.UpdateComment(ctx.Request.Context(), commentID, userID, req.Content)
	if err != nil {
		respondError(ctx, err, 32)
		return
	}
	utils.Success(ctx, view)
}

// DeleteComment soft-deletes the caller's comment. Its replies stay.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	commentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := c.board.DeleteComment(ctx.Request.Context(), commentID, userID); err != nil {
		respondError(ctx, err, 33)
		return
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}
