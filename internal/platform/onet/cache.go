package onet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartographai/discovery-backend/internal/platform/envutil"
	"github.com/cartographai/discovery-backend/internal/platform/logger"
)

// SearchCache is a read-through Redis cache for catalog search results.
// Catalog data changes on a release cadence, so a long TTL is safe. A nil
// *SearchCache is a valid no-op cache.
type SearchCache struct {
	log *logger.Logger
	rdb *redis.Client
	ttl time.Duration
}

// NewSearchCacheFromEnv returns nil (cache disabled) when REDIS_ADDR is not
// set. Connection problems degrade to cache misses rather than failures.
func NewSearchCacheFromEnv(log *logger.Logger) *SearchCache {
	addr := strings.TrimSpace(envutil.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.GetEnv("REDIS_PASSWORD", "", nil),
		DB:       envutil.GetEnvAsInt("REDIS_DB", 0, log),
	})
	ttl := time.Duration(envutil.GetEnvAsInt("ONET_CACHE_TTL_SECONDS", 86400, log)) * time.Second
	if log != nil {
		log = log.With("service", "OnetSearchCache")
		log.Info("Catalog search cache enabled", "addr", addr, "ttl", ttl.String())
	}
	return &SearchCache{log: log, rdb: rdb, ttl: ttl}
}

func (c *SearchCache) GetSearch(ctx context.Context, keyword string, limit int) ([]Occupation, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, searchKey(keyword, limit)).Result()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.Debug("Catalog cache read failed", "error", err)
		}
		return nil, false
	}
	var hits []Occupation
	if err := json.Unmarshal([]byte(raw), &hits); err != nil {
		return nil, false
	}
	return hits, true
}

func (c *SearchCache) PutSearch(ctx context.Context, keyword string, limit int, hits []Occupation) {
	if c == nil || c.rdb == nil {
		return
	}
	raw, err := json.Marshal(hits)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, searchKey(keyword, limit), raw, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Debug("Catalog cache write failed", "error", err)
	}
}

func searchKey(keyword string, limit int) string {
	return fmt.Sprintf("onet:search:%s:%d", strings.ToLower(strings.TrimSpace(keyword)), limit)
}
