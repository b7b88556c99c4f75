package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"warehouse-be/internal/logger"
	"warehouse-be/internal/order"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// KeyOrder is order:{order_id} -> JSON order snapshot.
const KeyOrder = "order:%d"

const DefaultOrderTTL = 5 * time.Minute

// OrderCache stores order snapshots in Redis. Every failure degrades to a
// cache miss; the database stays the source of truth.
type OrderCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewOrderCache(rdb redis.Cmdable, ttl time.Duration) *OrderCache {
	if ttl <= 0 {
		ttl = DefaultOrderTTL
	}
	return &OrderCache{rdb: rdb, ttl: ttl}
}

func orderKey(id int64) string {
	return fmt.Sprintf(KeyOrder, id)
}

func (c *OrderCache) Get(ctx context.Context, id int64) (*order.Order, bool) {
	b, err := c.rdb.Get(ctx, orderKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.warn(ctx, "cache get failed", id, err)
		}
		return nil, false
	}

	var o order.Order
	if err := json.Unmarshal(b, &o); err != nil {
		c.warn(ctx, "cache entry undecodable", id, err)
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &o, true
}

func (c *OrderCache) Set(ctx context.Context, o *order.Order) {
	b, err := json.Marshal(o)
	if err != nil {
		c.warn(ctx, "cache encode failed", o.ID, err)
		return
	}
	if err := c.rdb.Set(ctx, orderKey(o.ID), b, c.ttl).Err(); err != nil {
		c.warn(ctx, "cache set failed", o.ID, err)
	}
}

func (c *OrderCache) Invalidate(ctx context.Context, id int64) {
	if err := c.rdb.Del(ctx, orderKey(id)).Err(); err != nil {
		c.warn(ctx, "cache invalidate failed", id, err)
	}
}

func (c *OrderCache) warn(ctx context.Context, msg string, id int64, err error) {
	logger.FromCtx(ctx).Warn(msg,
		zap.String("layer", "cache"),
		zap.Int64("order_id", id),
		zap.Error(err),
	)
}
