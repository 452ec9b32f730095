package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/storage"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

const listCachePrefix = "cache:posts:list:"

// Options configures a Board.
type Options struct {
	DB     *gorm.DB
	Store  storage.Store
	Clock  Clock
	Logger *zap.Logger
	// Cache may be nil.
	Cache             *utils.Cache
	ListCacheTTL      time.Duration
	MaxUploadBytes    int64
	AllowedExtensions map[string][]string
	MaxLoginFailures  int
}

// Board implements posts, comments, attachments and login on top of one database handle and one file store.
type Board struct {
	db             *gorm.DB
	store          storage.Store
	clock          Clock
	log            *zap.Logger
	cache          *utils.Cache
	listCacheTTL   time.Duration
	maxUploadBytes int64
	allowedExt     map[string]bool
	maxFailures    int
}

// NewBoard builds a Board from opts, filling unset collaborators with defaults.
func NewBoard(opts Options) *Board {
	b := &Board{
		db:             opts.DB,
		store:          opts.Store,
		clock:          opts.Clock,
		log:            opts.Logger,
		cache:          opts.Cache,
		listCacheTTL:   opts.ListCacheTTL,
		maxUploadBytes: opts.MaxUploadBytes,
		allowedExt:     map[string]bool{},
		maxFailures:    opts.MaxLoginFailures,
	}
	if b.clock == nil {
		b.clock = SystemClock{}
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.maxUploadBytes <= 0 {
		b.maxUploadBytes = 10 * 1024 * 1024
	}
	if b.maxFailures <= 0 {
		b.maxFailures = 5
	}
	for _, exts := range opts.AllowedExtensions {
		for _, ext := range exts {
			b.allowedExt[ext] = true
		}
	}
	return b
}

// Clock returns the clock used for timestamps.
func (b *Board) Clock() Clock { return b.clock }

// activePost loads a post that is not soft-deleted.
func activePost(ctx context.Context, db *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	err := db.WithContext(ctx).Where("post_no = ? AND is_delete = ?", postID, false).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("post not found")
	}
	if err != nil {
		return nil, internal("failed to load post", err)
	}
	return &post, nil
}

// displayNames resolves user ids to display names; unknown ids are left out.
func (b *Board) displayNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	ids = utils.UniqueStrings(ids)
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	if err := b.db.WithContext(ctx).Select("usr_id", "usr_nm").Where("usr_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, internal("failed to load users", err)
	}
	for _, u := range users {
		names[u.ID] = u.DisplayName
	}
	return names, nil
}

func (b *Board) invalidateLists(ctx context.Context) {
	b.cache.InvalidateByPrefix(ctx, listCachePrefix)
}

// asBoardError keeps typed errors and wraps anything else as internal.
func asBoardError(err error, msg string) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return internal(msg, err)
}
