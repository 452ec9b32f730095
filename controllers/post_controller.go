package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	board *services.Board
}

// NewPostController creates a new PostController instance.
func NewPostController(board *services.Board) *PostController {
	return &PostController{board: board}
}

type postForm struct {
	Title         string `form:"title" json:"title" binding:"required"`
	Content       string `form:"content" json:"content" binding:"required"`
	VideoURL      string `form:"video_url" json:"video_url" binding:"omitempty,video_url"`
	ImageURL      string `form:"img_url" json:"img_url" binding:"omitempty,image_url"`
	ExistingFiles []uint `form:"existing_files" json:"existing_files"`
}

func (f postForm) input() services.PostInput {
	return services.PostInput{Title: f.Title, Content: f.Content, VideoURL: f.VideoURL, ImageURL: f.ImageURL}
}

// ListPosts returns one page of posts.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	list, err := p.board.ListPosts(ctx.Request.Context(), services.ListQuery{
		Page:       page,
		Search:     ctx.Query("search"),
		SearchType: ctx.Query("search_type"),
		AuthorID:   ctx.Query("author_id"),
		SortBy:     ctx.DefaultQuery("sortBy", "createdAt"),
		SortOrder:  ctx.DefaultQuery("sortOrder", "desc"),
	})
	if err != nil {
		respondError(ctx, err, 21)
		return
	}
	utils.Success(ctx, list)
}

// GetPost returns a single post with attachments and comments and counts the view.
func (p *PostController) GetPost(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	detail, err := p.board.GetPostDetail(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err, 23)
		return
	}
	utils.Success(ctx, detail)
}

// CreatePost creates a post with optional attachments from a multipart form.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	var req postForm
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	detail, err := p.board.CreatePost(ctx.Request.Context(), userID, req.input(), formFiles(ctx))
	if err != nil {
		respondError(ctx, err, 24)
		return
	}
	utils.Created(ctx, detail)
}

// UpdatePost edits a post. Attachments are replaced only when files or existing_files are sent.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req postForm
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid request payload")
		return
	}

	files := formFiles(ctx)
	detail, err := p.board.UpdatePost(ctx.Request.Context(), postID, userID, services.PostUpdate{
		PostInput:          req.input(),
		ReplaceAttachments: len(files) > 0 || req.ExistingFiles != nil,
		KeepAttachmentIDs:  req.ExistingFiles,
		Files:              files,
	})
	if err != nil {
		respondError(ctx, err, 25)
		return
	}
	utils.Success(ctx, detail)
}

// DeletePost soft-deletes a post together with its comments and attachments.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := p.board.DeletePost(ctx.Request.Context(), postID, userID); err != nil {
		respondError(ctx, err, 26)
		return
	}
	utils.Success(ctx, gin.H{"message": "post deleted"})
}
