// Package cmd holds the command line entry points of the board server.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yjchoi-grove/vibe-coding/config"
	"github.com/yjchoi-grove/vibe-coding/models"
	"github.com/yjchoi-grove/vibe-coding/services"
	"github.com/yjchoi-grove/vibe-coding/storage"
	"github.com/yjchoi-grove/vibe-coding/utils"
)

// RootCommand is the top-level command; subcommands register themselves in init.
var RootCommand = &cobra.Command{
	Use:   "vibe-board",
	Short: "Bulletin board API server",
	// Without a subcommand, serve
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
	SilenceUsage: true,
}

// Execute runs the command line.
func Execute() {
	if err := RootCommand.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app bundles what every command needs after boot.
type app struct {
	cfg   config.AppConfig
	db    *gorm.DB
	store storage.Store
	redis *redis.Client
	clock services.Clock
	board *services.Board
}

// bootstrap loads configuration, initialises logging, opens the database and builds the board.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := utils.InitLogger(cfg); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	return newApp(ctx, cfg)
}

// openDatabase is swapped in tests.
var openDatabase = config.InitDatabase

func newApp(ctx context.Context, cfg config.AppConfig) (*app, error) {
	db, err := openDatabase(cfg, models.All()...)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		closeDB(db)
		return nil, err
	}

	rc := utils.NewRedisClient(cfg)
	clock := services.NewSystemClock(cfg.Timezone)
	board := services.NewBoard(services.Options{
		DB:                db,
		Store:             store,
		Clock:             clock,
		Logger:            utils.Logger,
		Cache:             utils.NewCache(rc),
		ListCacheTTL:      time.Duration(cfg.ListCacheTTLSec) * time.Second,
		MaxUploadBytes:    cfg.MaxUploadBytes(),
		AllowedExtensions: cfg.AllowedExtensions,
		MaxLoginFailures:  cfg.MaxLoginFailures,
	})
	return &app{cfg: cfg, db: db, store: store, redis: rc, clock: clock, board: board}, nil
}

func openStore(ctx context.Context, cfg config.AppConfig) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
		})
	case "local", "":
		return storage.NewLocalStore(cfg.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) close() {
	closeDB(a.db)
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = utils.Logger.Sync()
}
