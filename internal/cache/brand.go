// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// brand.go provides a Valkey-backed cache for brand style profiles.
// The brand style is read on every prompt composition, so serving it from
// Valkey skips the Postgres round trip on the hot path. Writes invalidate.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"brandforge/internal/models"
)

const (
	// brandKeyPrefix is the Valkey key prefix for cached brand styles.
	brandKeyPrefix = "brand:"

	// DefaultBrandTTL is how long a cached brand style stays valid.
	DefaultBrandTTL = 10 * time.Minute
)

// BrandCache manages per-user brand style caching in Valkey.
type BrandCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBrandCache creates a brand style cache backed by the given Valkey client.
func NewBrandCache(client *redis.Client, ttl time.Duration) *BrandCache {
	if ttl == 0 {
		ttl = DefaultBrandTTL
	}
	return &BrandCache{client: client, ttl: ttl}
}

// Get retrieves the cached brand style for a user. Returns (nil, false) on
// miss or on any cache error; the caller falls through to the database.
func (bc *BrandCache) Get(ctx context.Context, userID uuid.UUID) (*models.BrandStyle, bool) {
	val, err := bc.client.Get(ctx, brandKeyPrefix+userID.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("brand cache get error", "user", userID, "error", err)
		return nil, false
	}

	var style models.BrandStyle
	if err := json.Unmarshal(val, &style); err != nil {
		slog.Warn("brand cache decode error", "user", userID, "error", err)
		return nil, false
	}
	slog.Debug("brand cache hit", "user", userID)
	return &style, true
}

// Set stores a brand style for a user with the configured TTL.
func (bc *BrandCache) Set(ctx context.Context, userID uuid.UUID, style *models.BrandStyle) {
	payload, err := json.Marshal(style)
	if err != nil {
		slog.Warn("brand cache encode error", "user", userID, "error", err)
		return
	}
	if err := bc.client.Set(ctx, brandKeyPrefix+userID.String(), payload, bc.ttl).Err(); err != nil {
		slog.Warn("brand cache set error", "user", userID, "error", err)
	}
}

// Invalidate removes a user's cached brand style after a save.
func (bc *BrandCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := bc.client.Del(ctx, brandKeyPrefix+userID.String()).Err(); err != nil {
		slog.Warn("brand cache invalidate error", "user", userID, "error", err)
	}
	slog.Debug("brand cache invalidated", "user", userID)
}
