package forecast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"meal-waste-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// Cache stores prediction results in Redis keyed by artifact tag and context.
// Lookup failures are logged and treated as misses.
type Cache struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	log    logger.Logger
}

func NewCache(client redis.Cmdable, prefix string, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log.WithFields(map[string]interface{}{"component": "prediction-cache"}),
	}
}

func (c *Cache) key(tag string, pc PredictionContext) string {
	raw, _ := json.Marshal(pc)
	sum := sha256.Sum256(raw)
	return c.prefix + ":prediction:" + tag + ":" + hex.EncodeToString(sum[:16])
}

// Get returns the cached result for pc, if any.
func (c *Cache) Get(ctx context.Context, tag string, pc PredictionContext) (*Result, bool) {
	val, err := c.client.Get(ctx, c.key(tag, pc)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var res Result
	if err := json.Unmarshal(val, &res); err != nil {
		c.log.Warn("discarding corrupt cache entry", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &res, true
}

// Set stores res for pc.
func (c *Cache) Set(ctx context.Context, tag string, pc PredictionContext, res *Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		c.log.Warn("cannot encode result for cache", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := c.client.Set(ctx, c.key(tag, pc), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache store failed", map[string]interface{}{"error": err.Error()})
	}
}
