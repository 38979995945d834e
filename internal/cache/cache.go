// Package cache keeps the alumni directory in Redis so the listing is not rebuilt
// on every request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/reunion/internal/config"
	"github.com/Shivanand-hulikatti/reunion/internal/model"
	"github.com/Shivanand-hulikatti/reunion/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const directoryKey = "reunion:directory"

// Directory stores the full directory listing under a single key.
type Directory struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient connects to Redis. It returns nil when Addr is empty or the server does
// not answer, and callers run without a cache.
func NewClient(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Warn("redis unavailable, directory cache disabled", logger.String("addr", cfg.Addr), logger.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}

// NewDirectory wraps rdb. A nil client gives a cache that always misses.
func NewDirectory(rdb *redis.Client, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Directory{rdb: rdb, ttl: ttl}
}

// Get returns the cached listing. Misses and Redis errors both report false.
func (d *Directory) Get(ctx context.Context) ([]model.DirectoryEntry, bool) {
	if d == nil || d.rdb == nil {
		return nil, false
	}
	bs, err := d.rdb.Get(ctx, directoryKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("directory cache read failed", logger.Error(err))
		}
		return nil, false
	}
	var entries []model.DirectoryEntry
	if err := json.Unmarshal(bs, &entries); err != nil {
		logger.Log.Warn("directory cache entry corrupt", logger.Error(err))
		return nil, false
	}
	return entries, true
}

// Set stores the listing for the configured TTL.
func (d *Directory) Set(ctx context.Context, entries []model.DirectoryEntry) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	bs, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode directory: %w", err)
	}
	if err := d.rdb.Set(ctx, directoryKey, bs, d.ttl).Err(); err != nil {
		return fmt.Errorf("cache directory: %w", err)
	}
	return nil
}

// Invalidate drops the listing, e.g. after a profile is completed.
func (d *Directory) Invalidate(ctx context.Context) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	if err := d.rdb.Del(ctx, directoryKey).Err(); err != nil {
		return fmt.Errorf("invalidate directory: %w", err)
	}
	return nil
}
