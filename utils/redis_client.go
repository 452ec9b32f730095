package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yjchoi-grove/vibe-coding/config"
)

// NewRedisClient returns a client for the configured Redis, or nil when Redis is disabled.
func NewRedisClient(cfg config.AppConfig) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	// ping to surface misconfiguration early; callers fall back on errors anyway
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		Sugar.Warnf("redis ping failed addr=%s err=%v", rc.Options().Addr, err)
	}
	return rc
}
