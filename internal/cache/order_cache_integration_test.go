//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"warehouse-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestOrderCache_Redis(t *testing.T) {
	rdb := NewClient(startRedis(t))
	defer rdb.Close()

	ctx := context.Background()
	require.NoError(t, Ping(ctx, rdb))

	c := NewOrderCache(rdb, time.Minute)
	ref := "NL-1"
	want := &order.Order{
		ID:         9,
		CustomerID: 3,
		Reference:  &ref,
		Status:     order.StatusPicked,
		Items:      []order.Item{{ID: 1, OrderID: 9, ProductID: 2, Qty: 4}},
	}

	_, ok := c.Get(ctx, 9)
	assert.False(t, ok)

	c.Set(ctx, want)
	got, ok := c.Get(ctx, 9)
	require.True(t, ok)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, "NL-1", *got.Reference)

	ttl, err := rdb.TTL(ctx, orderKey(9)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	c.Invalidate(ctx, 9)
	_, ok = c.Get(ctx, 9)
	assert.False(t, ok)

	require.NoError(t, rdb.Set(ctx, orderKey(10), "{not json", time.Minute).Err())
	_, ok = c.Get(ctx, 10)
	assert.False(t, ok)
	assert.Equal(t, int64(0), rdb.Exists(ctx, orderKey(10)).Val())
}
