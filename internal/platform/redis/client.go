// Package redis connects to the cache that holds per-event availability
// pools.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tabrela/internal/platform/config"
)

// connName is reported in CLIENT LIST.
const connName = "tabrela-availability"

// Client is a go-redis client scoped to the availability key namespace.
type Client struct {
	*redis.Client
	keyPrefix string
}

// New connects using cfg. Returns nil when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	opts, err := options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping %s: %w", opts.Addr, err)
	}
	return &Client{Client: rdb, keyPrefix: cfg.KeyPrefix}, nil
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse TABRELA_REDIS_URL: %w", err)
	}
	if opts.ClientName == "" {
		opts.ClientName = connName
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 && (opts.PoolSize == 0 || cfg.MinIdleConns <= opts.PoolSize) {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	for _, d := range []struct {
		dst *time.Duration
		src time.Duration
	}{
		{&opts.DialTimeout, cfg.DialTimeout},
		{&opts.ReadTimeout, cfg.ReadTimeout},
		{&opts.WriteTimeout, cfg.WriteTimeout},
	} {
		if d.src > 0 {
			*d.dst = d.src
		}
	}
	return opts, nil
}

// KeyPrefix is the namespace availability pools live under.
func (c *Client) KeyPrefix() string { return c.keyPrefix }

// PoolKeys lists the availability keys currently cached.
func (c *Client) PoolKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.Scan(ctx, 0, c.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", c.keyPrefix, err)
	}
	return keys, nil
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
