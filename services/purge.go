package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/storage"
)

const purgeBatchSize = 100

// Purger removes the backing files of soft-deleted attachments once they are older
// than the retention period. Rows stay; only file_purged is set.
type Purger struct {
	db        *gorm.DB
	store     storage.Store
	clock     Clock
	log       *zap.Logger
	retention time.Duration
}

// NewPurger creates a Purger. A zero retention purges files as soon as they are deleted.
func NewPurger(db *gorm.DB, store storage.Store, clock Clock, logger *zap.Logger, retention time.Duration) *Purger {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Purger{db: db, store: store, clock: clock, log: logger, retention: retention}
}

// Start runs RunOnce every interval until ctx is cancelled.
func (p *Purger) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			// Wait first to avoid racing immediately at startup
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if n, err := p.RunOnce(ctx); err != nil {
				p.log.Warn("upload purge failed", zap.Error(err))
			} else if n > 0 {
				p.log.Info("upload purge finished", zap.Int("purged", n))
			}
		}
	}()
}

// RunOnce purges one batch and returns how many files were removed.
func (p *Purger) RunOnce(ctx context.Context) (int, error) {
	cutoff := p.clock.Now().Add(-p.retention)
	var items []models.Attachment
	if err := p.db.WithContext(ctx).
		Where("is_delete = ? AND file_purged = ? AND updated_at <= ?", true, false, cutoff).
		Order("seq ASC").Limit(purgeBatchSize).Find(&items).Error; err != nil {
		return 0, err
	}

	purged := 0
	for _, it := range items {
		if err := p.store.Remove(ctx, it.StoragePath); err != nil {
			p.log.Warn("upload purge remove failed", zap.Uint("attachment_id", it.ID), zap.Error(err))
			continue
		}
		// Flag the row regardless of whether the file was still there
		if err := p.db.WithContext(ctx).Model(&models.Attachment{}).Where("seq = ?", it.ID).
			UpdateColumn("file_purged", true).Error; err != nil {
			p.log.Warn("upload purge mark failed", zap.Uint("attachment_id", it.ID), zap.Error(err))
			continue
		}
		purged++
	}
	purgedFilesTotal.Add(float64(purged))
	return purged, nil
}
