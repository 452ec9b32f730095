package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yjchoi-grove/vibe-coding/middleware"
	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// respondError maps a service error to its HTTP status. The response code is
// the status followed by a two-digit suffix identifying the call site, e.g. 40421.
func respondError(ctx *gin.Context, err error, suffix int) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		utils.Logger.Error("request failed",
			zap.Error(err),
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", ctx.GetString(utils.ContextRequestIDKey)),
		)
	}
	utils.Error(ctx, status, status*100+suffix, services.Message(err))
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func getUserID(ctx *gin.Context) (string, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return "", false
	}
	id, ok := value.(string)
	return id, ok && id != ""
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(ctx *gin.Context) (string, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	}
	return userID, ok
}

// formFiles collects uploaded files from the multipart fields clients use.
func formFiles(ctx *gin.Context) []services.Upload {
	form, err := ctx.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	var out []services.Upload
	for _, key := range []string{"files", "files[]", "file"} {
		for _, fh := range form.File[key] {
			out = append(out, services.UploadFromHeader(fh))
		}
	}
	return out
}
