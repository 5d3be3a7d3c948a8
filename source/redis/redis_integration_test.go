//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/fieldday/flagd"
	"github.com/fieldday/flagd/resolver"
	flagdredis "github.com/fieldday/flagd/source/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testcontainer "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func initRedis(t *testing.T) string {
	t.Helper()

	ctx := context.Background()
	redisC, err := testcontainer.GenericContainer(ctx, testcontainer.GenericContainerRequest{
		ContainerRequest: testcontainer.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to initialize redis testcontainer: %v", err)
	}
	t.Cleanup(func() {
		_ = redisC.Terminate(ctx)
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)
	port, err := redisC.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestSource_Redis(t *testing.T) {
	url := initRedis(t)
	ctx := context.Background()

	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)
	defer rdb.Close()
	require.NoError(t, rdb.Set(ctx, "flagd:featureFlags", `{"voiceSortingEnabled": true, "newCheckoutFlow": 15}`, 0).Err())

	src, err := flagdredis.NewSource(ctx, url, "flagd:")
	require.NoError(t, err)
	defer src.Close()

	snap := resolver.NewService(src).Snapshot(ctx)
	assert.Equal(t, "redis", snap.Source)
	assert.Equal(t, flagd.BoolValue(true), snap.Flags["voiceSortingEnabled"])
	assert.Equal(t, flagd.PercentValue(15), snap.Flags["newCheckoutFlow"])

	b, err := src.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, b)
}
