package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/storage"
)

// sniffLen is how much of an upload is read to detect its MIME type.
const sniffLen = 3072

// Upload is one file received from a client.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadFromHeader adapts a multipart file header.
func UploadFromHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// AttachmentView is the public form of an attachment row.
type AttachmentView struct {
	ID               uint      `json:"id"`
	PostID           uint      `json:"post_id"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	FilePath         string    `json:"file_path"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type"`
	CreatedAt        time.Time `json:"createdAt"`
}

func toAttachmentView(a models.Attachment) AttachmentView {
	return AttachmentView{
		ID:               a.ID,
		PostID:           a.PostID,
		Filename:         a.StoredFilename,
		OriginalFilename: a.OriginalFilename,
		FilePath:         storage.PublicPath(a.StoragePath),
		FileSize:         a.SizeBytes,
		MimeType:         a.MimeType,
		CreatedAt:        a.CreatedAt,
	}
}

func toAttachmentViews(rows []models.Attachment) []AttachmentView {
	out := make([]AttachmentView, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAttachmentView(a))
	}
	return out
}

// ValidateUploads checks every file against the size limit and extension allow-list.
// It runs before any mutation so a bad file rejects the whole request.
func (b *Board) ValidateUploads(files []Upload) error {
	for _, f := range files {
		name := strings.TrimSpace(f.Filename)
		if name == "" {
			return invalid("file name is required")
		}
		ext := strings.ToLower(filepath.Ext(name))
		if !b.allowedExt[ext] {
			return invalid("file type %q is not allowed", ext)
		}
		if f.Size > b.maxUploadBytes {
			return invalid("file %q exceeds the %d MB limit", filepath.Base(name), b.maxUploadBytes/(1024*1024))
		}
	}
	return nil
}

// writeUploads stores files and inserts their rows through tx. Locators of the
// files written so far are returned even on error so the caller can remove them.
func (b *Board) writeUploads(ctx context.Context, tx *gorm.DB, postID uint, files []Upload) ([]models.Attachment, []string, error) {
	rows := make([]models.Attachment, 0, len(files))
	written := make([]string, 0, len(files))
	for _, f := range files {
		row, err := b.writeUpload(ctx, postID, f)
		if err != nil {
			uploadTotal.WithLabelValues("failed").Inc()
			return rows, written, err
		}
		written = append(written, row.StoragePath)
		if err := tx.Create(&row).Error; err != nil {
			return rows, written, internal("failed to save attachment", err)
		}
		uploadTotal.WithLabelValues("stored").Inc()
		uploadBytes.Observe(float64(row.SizeBytes))
		rows = append(rows, row)
	}
	return rows, written, nil
}

func (b *Board) writeUpload(ctx context.Context, postID uint, f Upload) (models.Attachment, error) {
	original := filepath.Base(strings.ReplaceAll(f.Filename, "\\", "/"))
	name, err := storage.UniqueName(ctx, b.store, storage.SanitizeFilename(original))
	if err != nil {
		return models.Attachment{}, internal("failed to check storage", err)
	}

	rc, err := f.Open()
	if err != nil {
		return models.Attachment{}, internal("failed to read upload", err)
	}
	defer rc.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return models.Attachment{}, internal("failed to read upload", err)
	}
	head = head[:n]
	mimeType := f.ContentType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(head).String()
	}

	locator, size, err := b.store.Create(ctx, name, io.MultiReader(bytes.NewReader(head), rc), b.maxUploadBytes)
	if errors.Is(err, storage.ErrTooLarge) {
		return models.Attachment{}, invalid("file %q exceeds the %d MB limit", original, b.maxUploadBytes/(1024*1024))
	}
	if err != nil {
		return models.Attachment{}, internal("failed to store file", err)
	}

	now := b.clock.Now()
	return models.Attachment{
		PostID:           postID,
		StoredFilename:   name,
		OriginalFilename: original,
		StoragePath:      locator,
		SizeBytes:        size,
		MimeType:         mimeType,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// discard removes files written by a failed request.
func (b *Board) discard(ctx context.Context, locators []string) {
	for _, loc := range locators {
		if err := b.store.Remove(ctx, loc); err != nil {
			b.log.Warn("failed to remove orphaned upload", zap.String("locator", loc), zap.Error(err))
		}
	}
}

// purgeFiles removes backing files of already soft-deleted rows and marks them purged.
// Failures are logged; the purge worker retries later.
func (b *Board) purgeFiles(ctx context.Context, rows []models.Attachment) {
	for _, a := range rows {
		if err := b.store.Remove(ctx, a.StoragePath); err != nil {
			b.log.Warn("failed to remove attachment file", zap.Uint("attachment_id", a.ID), zap.Error(err))
			continue
		}
		if err := b.db.WithContext(ctx).Model(&models.Attachment{}).Where("seq = ?", a.ID).
			UpdateColumn("file_purged", true).Error; err != nil {
			b.log.Warn("failed to mark attachment purged", zap.Uint("attachment_id", a.ID), zap.Error(err))
		}
	}
}

func (b *Board) ownedPost(ctx context.Context, db *gorm.DB, postID uint, requesterID string) (*models.Post, error) {
	post, err := activePost(ctx, db, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != requesterID {
		return nil, forbidden("you can only modify your own post")
	}
	return post, nil
}

// AddAttachments stores files under a post without touching its existing attachments.
func (b *Board) AddAttachments(ctx context.Context, postID uint, requesterID string, files []Upload) ([]AttachmentView, error) {
	if len(files) == 0 {
		return nil, invalid("no files uploaded")
	}
	if err := b.ValidateUploads(files); err != nil {
		return nil, err
	}
	if _, err := b.ownedPost(ctx, b.db, postID, requesterID); err != nil {
		return nil, err
	}

	var created []models.Attachment
	var written []string
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, written, err = b.writeUploads(ctx, tx, postID, files)
		return err
	})
	if err != nil {
		b.discard(ctx, written)
		return nil, asBoardError(err, "failed to add attachments")
	}
	return toAttachmentViews(created), nil
}

// ReplaceAttachments soft-deletes every active attachment of the post not listed in
// keepIDs, then stores files. Backing files of replaced rows are removed after commit.
func (b *Board) ReplaceAttachments(ctx context.Context, postID uint, requesterID string, files []Upload, keepIDs []uint) ([]AttachmentView, error) {
	if err := b.ValidateUploads(files); err != nil {
		return nil, err
	}
	if _, err := b.ownedPost(ctx, b.db, postID, requesterID); err != nil {
		return nil, err
	}

	var replaced []models.Attachment
	var written []string
	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		replaced, err = b.replaceInTx(ctx, tx, postID, keepIDs)
		if err != nil {
			return err
		}
		_, written, err = b.writeUploads(ctx, tx, postID, files)
		return err
	})
	if err != nil {
		b.discard(ctx, written)
		return nil, asBoardError(err, "failed to replace attachments")
	}
	b.purgeFiles(ctx, replaced)

	var active []models.Attachment
	if err := b.db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", postID, false).
		Order("seq ASC").Find(&active).Error; err != nil {
		return nil, internal("failed to load attachments", err)
	}
	return toAttachmentViews(active), nil
}

// replaceInTx soft-deletes the active attachments of a post except keepIDs and returns them.
func (b *Board) replaceInTx(ctx context.Context, tx *gorm.DB, postID uint, keepIDs []uint) ([]models.Attachment, error) {
	q := tx.Where("post_no = ? AND is_delete = ?", postID, false)
	if len(keepIDs) > 0 {
		q = q.Where("seq NOT IN ?", keepIDs)
	}
	var old []models.Attachment
	if err := q.Find(&old).Error; err != nil {
		return nil, internal("failed to load attachments", err)
	}
	if len(old) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(old))
	for _, a := range old {
		ids = append(ids, a.ID)
	}
	if err := tx.Model(&models.Attachment{}).Where("seq IN ?", ids).
		Updates(map[string]interface{}{"is_delete": true, "updated_at": b.clock.Now()}).Error; err != nil {
		return nil, internal("failed to delete attachments", err)
	}
	softDeleteTotal.WithLabelValues("attachment").Add(float64(len(old)))
	return old, nil
}

// loadAttachment finds an active attachment whose post is active. postID 0 skips the post match.
func (b *Board) loadAttachment(ctx context.Context, postID, attachmentID uint) (*models.Attachment, *models.Post, error) {
	var att models.Attachment
	err := b.db.WithContext(ctx).Where("seq = ? AND is_delete = ?", attachmentID, false).First(&att).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, notFound("attachment not found")
	}
	if err != nil {
		return nil, nil, internal("failed to load attachment", err)
	}
	if postID != 0 && att.PostID != postID {
		return nil, nil, notFound("attachment not found")
	}
	post, err := activePost(ctx, b.db, att.PostID)
	if err != nil {
		return nil, nil, err
	}
	return &att, post, nil
}

// DeleteAttachment soft-deletes one attachment if the requester wrote its post.
// The row is committed first; a failure removing the file is only logged.
func (b *Board) DeleteAttachment(ctx context.Context, postID, attachmentID uint, requesterID string) error {
	att, post, err := b.loadAttachment(ctx, postID, attachmentID)
	if err != nil {
		return err
	}
	if post.AuthorID != requesterID {
		return forbidden("you can only delete attachments of your own post")
	}
	res := b.db.WithContext(ctx).Model(&models.Attachment{}).
		Where("seq = ? AND is_delete = ?", att.ID, false).
		Updates(map[string]interface{}{"is_delete": true, "updated_at": b.clock.Now()})
	if res.Error != nil {
		return internal("failed to delete attachment", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("attachment not found")
	}
	softDeleteTotal.WithLabelValues("attachment").Inc()
	b.purgeFiles(ctx, []models.Attachment{*att})
	return nil
}

// OpenAttachment returns an attachment and a reader over its content. The caller closes the reader.
func (b *Board) OpenAttachment(ctx context.Context, postID, attachmentID uint) (*AttachmentView, io.ReadCloser, error) {
	att, _, err := b.loadAttachment(ctx, postID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := b.store.Open(ctx, att.StoragePath)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, notFound("file not found")
	}
	if err != nil {
		return nil, nil, internal("failed to open file", err)
	}
	view := toAttachmentView(*att)
	return &view, rc, nil
}

// ListPostAttachments returns the active attachments of an active post.
func (b *Board) ListPostAttachments(ctx context.Context, postID uint) ([]AttachmentView, error) {
	if _, err := activePost(ctx, b.db, postID); err != nil {
		return nil, err
	}
	var rows []models.Attachment
	if err := b.db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", postID, false).
		Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, internal("failed to load attachments", err)
	}
	return toAttachmentViews(rows), nil
}

// ListAttachments returns every active attachment, newest first.
func (b *Board) ListAttachments(ctx context.Context) ([]AttachmentView, error) {
	var rows []models.Attachment
	if err := b.db.WithContext(ctx).Where("is_delete = ?", false).
		Order("created_at DESC").Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, internal("failed to load attachments", err)
	}
	return toAttachmentViews(rows), nil
}
