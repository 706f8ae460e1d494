package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/models"
)

const productListVersionKey = "products:list:version"

// ProductListCache stores rendered product pages. Every key embeds the
// current list version; bumping the version on any product write makes all
// older pages unreachable at once, and the TTL reclaims them.
type ProductListCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewProductListCache creates a new ProductListCache.
func NewProductListCache(redis *RedisClient, ttl time.Duration) *ProductListCache {
	return &ProductListCache{redis: redis, ttl: ttl}
}

func (c *ProductListCache) keyFor(version, queryKey string) string {
	return fmt.Sprintf("products:list:v%s:%s", version, queryKey)
}

// Version returns the current list version ("0" before the first write).
func (c *ProductListCache) Version(ctx context.Context) (string, error) {
	v, err := c.redis.Get(ctx, productListVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	return v, err
}

// Get returns the cached page for queryKey together with the version it was
// looked up under. Pass that version to Set so a page computed before a
// concurrent write is never stored under the newer version. A miss returns
// ErrMiss.
func (c *ProductListCache) Get(ctx context.Context, queryKey string) (*models.PageResult, string, error) {
	version, err := c.Version(ctx)
	if err != nil {
		return nil, "", err
	}

	raw, err := c.redis.Get(ctx, c.keyFor(version, queryKey))
	if err != nil {
		return nil, version, err
	}

	var page models.PageResult
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, version, fmt.Errorf("failed to unmarshal product page: %w", err)
	}
	return &page, version, nil
}

// Set stores page for queryKey under version.
func (c *ProductListCache) Set(ctx context.Context, version, queryKey string, page *models.PageResult) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal product page: %w", err)
	}
	return c.redis.Set(ctx, c.keyFor(version, queryKey), string(data), c.ttl)
}

// Invalidate bumps the list version.
func (c *ProductListCache) Invalidate(ctx context.Context) error {
	_, err := c.redis.Incr(ctx, productListVersionKey)
	return err
}
