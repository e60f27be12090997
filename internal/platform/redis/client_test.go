package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabrela/internal/platform/config"
)

func TestNewWithoutURL(t *testing.T) {
	c, err := New(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestOptions(t *testing.T) {
	cfg := config.RedisConfig{
		URL:          "redis://cache:6380/2",
		PoolSize:     8,
		MinIdleConns: 2,
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		KeyPrefix:    "league:availability:",
	}

	opts, err := options(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, connName, opts.ClientName)
	assert.Equal(t, 8, opts.PoolSize)
	assert.Equal(t, 2, opts.MinIdleConns)
	assert.Equal(t, time.Second, opts.DialTimeout)
	assert.Equal(t, 2*time.Second, opts.ReadTimeout)

	t.Run("unset durations keep the driver defaults", func(t *testing.T) {
		assert.Zero(t, opts.WriteTimeout)
	})

	t.Run("idle connections never exceed the pool", func(t *testing.T) {
		cfg := cfg
		cfg.MinIdleConns = 20
		opts, err := options(cfg)
		require.NoError(t, err)
		assert.Zero(t, opts.MinIdleConns)
	})

	t.Run("client name from the URL wins", func(t *testing.T) {
		cfg := cfg
		cfg.URL = "redis://cache:6379/0?client_name=attendance"
		opts, err := options(cfg)
		require.NoError(t, err)
		assert.Equal(t, "attendance", opts.ClientName)
	})

	t.Run("malformed URL", func(t *testing.T) {
		cfg := cfg
		cfg.URL = "http://cache"
		_, err := options(cfg)
		assert.ErrorContains(t, err, "TABRELA_REDIS_URL")
	})
}
