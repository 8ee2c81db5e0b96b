// Package resultcache caches assembled result bundles in the key-value
// store for a short TTL. A store failure degrades to a miss, never an error.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/archivesearch/internal/db"
	"github.com/kailas-cloud/archivesearch/internal/domain"
)

const cacheKeyPrefix = "archivesearch:search_cache:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is a read-through result bundle cache keyed by normalized query and
// page.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache. cacheTotal is a counter vec with label
// "result" ("hit"/"miss"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns the cached bundle for the query, or (nil, false) on miss. The
// cached payload is returned verbatim, semantic matches included: semantic
// ranking is cached, not recomputed per hit.
func (c *Cache) Get(ctx context.Context, q domain.Query) (*domain.ResultBundle, bool) {
	key := cacheKey(q)

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Result cache read failed, treating as miss", zap.Error(err))
		}
		c.incCache("miss")
		return nil, false
	}

	var bundle domain.ResultBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		c.logger.Warn("Failed to parse cached bundle", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return nil, false
	}

	c.incCache("hit")
	return &bundle, true
}

// Set stores the bundle under the query key with the configured TTL.
func (c *Cache) Set(ctx context.Context, q domain.Query, bundle *domain.ResultBundle) {
	data, err := json.Marshal(bundle)
	if err != nil {
		c.logger.Warn("Failed to encode bundle for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, cacheKey(q), data, c.ttl); err != nil {
		c.logger.Warn("Result cache write failed", zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey derives a stable key from the normalized query and page.
func cacheKey(q domain.Query) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s_p%d", q.Normalized, q.Page))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}
