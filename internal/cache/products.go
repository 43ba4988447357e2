package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productsKey = "products:all"
	productsTTL = 10 * time.Minute
)

// ProductCache garde la liste du catalogue sérialisée en JSON dans Redis.
// Toutes les méthodes tolèrent un cache nil ou un client absent : l'appelant
// retombe alors sur la base.
type ProductCache struct {
	rdb *redis.Client
}

func NewProductCache(rdb *redis.Client) *ProductCache {
	if rdb == nil {
		return nil
	}
	return &ProductCache{rdb: rdb}
}

// Get retourne le JSON mis en cache, ou false si absent/indisponible
func (c *ProductCache) Get(ctx context.Context) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, productsKey).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *ProductCache) Set(ctx context.Context, data []byte) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, productsKey, data, productsTTL)
}

// Invalidate est appelé après chaque mutation de stock
func (c *ProductCache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, productsKey)
}
