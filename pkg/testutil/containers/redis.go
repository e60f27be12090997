//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"tabrela/internal/platform/config"
	tabredis "tabrela/internal/platform/redis"
)

// TestKeyPrefix namespaces availability pools written by integration tests.
const TestKeyPrefix = "test:availability:"

// RedisContainer is a throwaway availability cache.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *tabredis.Client
}

// NewRedisContainer starts Redis and connects the way the server does, with
// a small pool and the test key prefix.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}
	client, err := tabredis.New(ctx, config.RedisConfig{URL: url, PoolSize: 4, KeyPrefix: TestKeyPrefix})
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect redis: %v", err)
	}
	return &RedisContainer{Container: container, URL: url, Client: client}
}

// SeedPool writes raw members into an event's pool, bypassing validation.
func (r *RedisContainer) SeedPool(ctx context.Context, eventID string, members ...string) error {
	values := make([]any, len(members))
	for i, m := range members {
		values[i] = m
	}
	return r.Client.SAdd(ctx, r.Client.KeyPrefix()+eventID, values...).Err()
}

// Reset drops every pool under the test prefix.
func (r *RedisContainer) Reset(ctx context.Context) error {
	keys, err := r.Client.PoolKeys(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	return r.Client.Del(ctx, keys...).Err()
}
