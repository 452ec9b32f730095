package controllers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// FileController serves attachment upload, listing, download and deletion.
type FileController struct {
	board *services.Board
}

func NewFileController(board *services.Board) *FileController {
	return &FileController{board: board}
}

// ListPostAttachments returns the active attachments of a post.
func (f *FileController) ListPostAttachments(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	list, err := f.board.ListPostAttachments(ctx.Request.Context(), postID)
	if err != nil {
		respondError(ctx, err, 40)
		return
	}
	utils.Success(ctx, list)
}

// ListAttachments returns every active attachment.
func (f *FileController) ListAttachments(ctx *gin.Context) {
	list, err := f.board.ListAttachments(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, 41)
		return
	}
	utils.Success(ctx, list)
}

// AddFiles appends uploaded files to a post.
func (f *FileController) AddFiles(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	list, err := f.board.AddAttachments(ctx.Request.Context(), postID, userID, formFiles(ctx))
	if err != nil {
		respondError(ctx, err, 42)
		return
	}
	utils.Created(ctx, list)
}

// ReplaceFiles swaps the attachment set of a post, keeping the ids listed in existing_files.
func (f *FileController) ReplaceFiles(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		ExistingFiles []uint `form:"existing_files" json:"existing_files"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40043, "invalid request payload")
		return
	}
	list, err := f.board.ReplaceAttachments(ctx.Request.Context(), postID, userID, formFiles(ctx), req.ExistingFiles)
	if err != nil {
		respondError(ctx, err, 43)
		return
	}
	utils.Success(ctx, list)
}

// DownloadPostAttachment streams an attachment that belongs to the post in the path.
func (f *FileController) DownloadPostAttachment(ctx *gin.Context) {
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseID(ctx, "attachmentId")
	if !ok {
		return
	}
	f.download(ctx, postID, attachmentID)
}

// DownloadFile streams an attachment by id.
func (f *FileController) DownloadFile(ctx *gin.Context) {
	attachmentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	f.download(ctx, 0, attachmentID)
}

func (f *FileController) download(ctx *gin.Context, postID, attachmentID uint) {
	view, rc, err := f.board.OpenAttachment(ctx.Request.Context(), postID, attachmentID)
	if err != nil {
		respondError(ctx, err, 44)
		return
	}
	defer rc.Close()

	contentType := view.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": view.OriginalFilename}))
	ctx.Header("Content-Type", contentType)
	ctx.Header("Content-Length", strconv.FormatInt(view.FileSize, 10))
	ctx.Status(http.StatusOK)
	_, _ = io.Copy(ctx.Writer, rc)
}

// DeletePostAttachment soft-deletes an attachment of the post in the path.
func (f *FileController) DeletePostAttachment(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	postID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	attachmentID, ok := parseID(ctx, "attachmentId")
	if !ok {
		return
	}
	if err := f.board.DeleteAttachment(ctx.Request.Context(), postID, attachmentID, userID); err != nil {
		respondError(ctx, err, 45)
		return
	}
	utils.Success(ctx, gin.H{"message": "attachment deleted"})
}

// DeleteFile soft-deletes an attachment by id.
func (f *FileController) DeleteFile(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	attachmentID, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	if err := f.board.DeleteAttachment(ctx.Request.Context(), 0, attachmentID, userID); err != nil {
		respondError(ctx, err, 46)
		return
	}
	utils.Success(ctx, gin.H{"message": "attachment deleted"})
}
