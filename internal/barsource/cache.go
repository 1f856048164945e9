package barsource

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bxscan/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultCacheTTL = 6 * time.Hour

// Cache is a read-through Redis decorator over another Source. Closed
// historical bars do not change, so cached series stay valid until the next
// period closes; the TTL bounds staleness for the newest bar.
type Cache struct {
	next   Source
	client *goredis.Client
	ttl    time.Duration
}

// NewCache wraps next with a Redis-backed cache. ttl <= 0 uses the default.
func NewCache(next Source, client *goredis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{next: next, client: client, ttl: ttl}
}

func cacheKey(symbol string, res model.Resolution) string {
	return "bars:" + symbol + ":" + string(res)
}

func (c *Cache) Bars(ctx context.Context, symbol string, res model.Resolution) ([]model.PriceBar, error) {
	key := cacheKey(symbol, res)

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var bars []model.PriceBar
		if jsonErr := json.Unmarshal(raw, &bars); jsonErr == nil {
			return bars, nil
		}
		// Corrupt cache entry — fall through to the source and overwrite.
		log.Printf("[barsource] dropping corrupt cache entry %s", key)
	} else if err != goredis.Nil {
		log.Printf("[barsource] cache read %s: %v", key, err)
	}

	bars, err := c.next.Bars(ctx, symbol, res)
	if err != nil {
		return nil, fmt.Errorf("bar source %s/%s: %w", symbol, res, err)
	}

	if encoded, jsonErr := json.Marshal(bars); jsonErr == nil {
		if setErr := c.client.Set(ctx, key, encoded, c.ttl).Err(); setErr != nil {
			log.Printf("[barsource] cache write %s: %v", key, setErr)
		}
	}
	return bars, nil
}
